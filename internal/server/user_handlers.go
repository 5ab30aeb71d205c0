package server

import (
	"net/url"
	"time"

	"cadence/internal/models"
	"cadence/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateUserRequest struct {
	FirstName         *string      `json:"first_name" validate:"omitempty,max=100"`
	LastName          *string      `json:"last_name" validate:"omitempty,max=100"`
	Email             *string      `json:"email" validate:"omitempty,appemail"`
	Password          *string      `json:"password" validate:"omitempty,password"`
	Gender            *string      `json:"gender" validate:"omitempty,max=32"`
	ProfilePictureURL *string      `json:"profile_picture_url" validate:"omitempty,url"`
	ContactNo         *string      `json:"contact_no" validate:"omitempty,max=32"`
	Bio               *string      `json:"bio" validate:"omitempty,max=2000"`
	DOB               *time.Time   `json:"dob"`
	Role              *models.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

// ListUsers handles GET /api/v1/users
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.users.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /api/v1/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.users.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

// GetUserByEmail handles GET /api/v1/users/email/:email
func (s *Server) GetUserByEmail(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil || email == "" {
		return badRequest(c, "Invalid email")
	}
	user, err := s.users.GetByEmail(c.UserContext(), email)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /api/v1/users/:id
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.users.Update(c.UserContext(), service.UpdateUserInput{
		UserID:            id,
		ActorID:           currentUserID(c),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Password:          req.Password,
		Gender:            req.Gender,
		ProfilePictureURL: req.ProfilePictureURL,
		ContactNo:         req.ContactNo,
		Bio:               req.Bio,
		DOB:               req.DOB,
		Role:              req.Role,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/v1/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.users.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FollowUser handles POST /api/v1/users/:id/follow; the caller follows :id.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	target, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.follows.Follow(c.UserContext(), currentUserID(c), target); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"following": true})
}

// UnfollowUser handles DELETE /api/v1/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	target, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.follows.Unfollow(c.UserContext(), currentUserID(c), target); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

// GetFollowers handles GET /api/v1/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	list, err := s.follows.Followers(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// GetFollowing handles GET /api/v1/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	list, err := s.follows.Following(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// GetFollowCounts handles GET /api/v1/users/:id/follow-counts
func (s *Server) GetFollowCounts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	counts, err := s.follows.Counts(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(counts)
}

// IsFollowing handles GET /api/v1/users/:id/is-following/:targetId
func (s *Server) IsFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	target, err := parseID(c, "targetId")
	if err != nil {
		return nil
	}
	following, err := s.follows.IsFollowing(c.UserContext(), id, target)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}
