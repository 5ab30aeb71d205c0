package server

import (
	"strconv"

	"cadence/internal/service"

	"github.com/gofiber/fiber/v2"
)

type planRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
	RemoveVideo bool    `json:"remove_video"`
}

type progressRequest struct {
	PlanID            uint    `json:"plan_id"`
	Content           *string `json:"content" validate:"omitempty,max=10000"`
	KeepExistingMedia *bool   `json:"keep_existing_media"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateProgressUpdate handles POST /api/v1/progress-updates (multipart:
// plan_id, content, media; or JSON without media).
func (s *Server) CreateProgressUpdate(c *fiber.Ctx) error {
	in := service.CreateProgressInput{AuthorID: currentUserID(c)}
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "Invalid multipart form")
		}
		raw, _ := formValue(form, "plan_id")
		planID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || planID == 0 {
			return badRequest(c, "plan_id is required")
		}
		in.PlanID = uint(planID)
		in.Content, _ = formValue(form, "content")
		in.Media = uploadsFrom(form, "media")
	} else {
		var req progressRequest
		if err := bindJSON(c, &req); err != nil {
			return nil
		}
		if req.PlanID == 0 {
			return badRequest(c, "plan_id is required")
		}
		in.PlanID = req.PlanID
		in.Content = deref(req.Content)
	}
	res, err := s.progress.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// GetProgressUpdate handles GET /api/v1/progress-updates/:id
func (s *Server) GetProgressUpdate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.progress.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// ListProgressByUser handles GET /api/v1/progress-updates/user/:userId
func (s *Server) ListProgressByUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	list, err := s.progress.ListByUser(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// ListProgressByPlan handles GET /api/v1/learning-plans/:id/progress-updates
func (s *Server) ListProgressByPlan(c *fiber.Ctx) error {
	planID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	list, err := s.progress.ListByPlan(c.UserContext(), planID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// UpdateProgressUpdate handles PUT /api/v1/progress-updates/:id
func (s *Server) UpdateProgressUpdate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	in := service.UpdateProgressInput{ID: id, ActorID: currentUserID(c)}
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "Invalid multipart form")
		}
		in.Content = optional(form, "content")
		in.KeepExistingMedia = formBool(form, "keep_existing_media", true)
		in.Media = uploadsFrom(form, "media")
	} else {
		var req progressRequest
		if err := bindJSON(c, &req); err != nil {
			return nil
		}
		in.Content = req.Content
		// Omitting the flag keeps the current media.
		in.KeepExistingMedia = req.KeepExistingMedia == nil || *req.KeepExistingMedia
	}
	res, err := s.progress.Update(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(res)
}

// DeleteProgressUpdate handles DELETE /api/v1/progress-updates/:id
func (s *Server) DeleteProgressUpdate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.progress.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPlans handles GET /api/v1/learning-plans
func (s *Server) ListPlans(c *fiber.Ctx) error {
	plans, err := s.plans.ListPlans(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(plans)
}

// ListPlansByCreator handles GET /api/v1/learning-plans/creator/:userId
func (s *Server) ListPlansByCreator(c *fiber.Ctx) error {
	creatorID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	plans, err := s.plans.ListPlansByCreator(c.UserContext(), creatorID, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(plans)
}

// GetPlan handles GET /api/v1/learning-plans/:id
func (s *Server) GetPlan(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	plan, err := s.plans.GetPlan(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(plan)
}

// planFields reads a plan body from multipart (with an optional video file)
// or JSON.
func planFields(c *fiber.Ctx) (planRequest, *service.UpdatePlanInput, error) {
	var req planRequest
	in := &service.UpdatePlanInput{}
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			_ = badRequest(c, "Invalid multipart form")
			return req, nil, errResponseWritten
		}
		req.Title = optional(form, "title")
		req.Description = optional(form, "description")
		req.VideoURL = optional(form, "video_url")
		req.RemoveVideo = formBool(form, "remove_video", false)
		if files := uploadsFrom(form, "video"); len(files) > 0 {
			in.Video = &files[0]
		}
	} else if err := bindJSON(c, &req); err != nil {
		return req, nil, err
	}
	in.Title, in.Description, in.VideoURL, in.RemoveVideo = req.Title, req.Description, req.VideoURL, req.RemoveVideo
	return req, in, nil
}

// CreatePlan handles POST /api/v1/learning-plans
func (s *Server) CreatePlan(c *fiber.Ctx) error {
	req, fields, err := planFields(c)
	if err != nil {
		return nil
	}
	plan, err := s.plans.CreatePlan(c.UserContext(), service.CreatePlanInput{
		ActorID:     currentUserID(c),
		Title:       deref(req.Title),
		Description: deref(req.Description),
		VideoURL:    deref(req.VideoURL),
		Video:       fields.Video,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// UpdatePlan handles PUT /api/v1/learning-plans/:id
func (s *Server) UpdatePlan(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	_, in, err := planFields(c)
	if err != nil {
		return nil
	}
	in.PlanID = id
	in.ActorID = currentUserID(c)
	plan, err := s.plans.UpdatePlan(c.UserContext(), *in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(plan)
}

// DeletePlan handles DELETE /api/v1/learning-plans/:id
func (s *Server) DeletePlan(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.plans.DeletePlan(c.UserContext(), id, currentUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Enroll handles POST /api/v1/learning-plans/:id/enroll
func (s *Server) Enroll(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	e, err := s.enrollments.Enroll(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

// Unenroll handles DELETE /api/v1/learning-plans/:id/enroll
func (s *Server) Unenroll(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.enrollments.Unenroll(c.UserContext(), id, currentUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkCompleted handles POST /api/v1/learning-plans/:id/complete
func (s *Server) MarkCompleted(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	e, err := s.enrollments.MarkCompleted(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(e)
}

// MyEnrollments handles GET /api/v1/enrollments/me
func (s *Server) MyEnrollments(c *fiber.Ctx) error {
	list, err := s.enrollments.ListEnrollments(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}
