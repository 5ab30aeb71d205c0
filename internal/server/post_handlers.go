package server

import (
	"cadence/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/v1/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.posts.ListPosts(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

// GetFollowingFeed handles GET /api/v1/posts/feed
func (s *Server) GetFollowingFeed(c *fiber.Ctx) error {
	posts, err := s.posts.ListFollowingFeed(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

// ListPostsByUser handles GET /api/v1/posts/user/:userId
func (s *Server) ListPostsByUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	posts, err := s.posts.ListPostsByUser(c.UserContext(), userID, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/v1/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.posts.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/v1/posts (multipart: caption, media x1..3)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Expected a multipart form with media files")
	}
	caption, _ := formValue(form, "caption")
	post, err := s.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Caption:  caption,
		Media:    uploadsFrom(form, "media"),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/v1/posts/:id. It accepts multipart (caption,
// media) or a JSON body with a caption only.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	in := service.UpdatePostInput{PostID: id, ActorID: currentUserID(c)}
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "Invalid multipart form")
		}
		in.Caption = optional(form, "caption")
		in.Media = uploadsFrom(form, "media")
	} else {
		var req struct {
			Caption *string `json:"caption" validate:"omitempty,max=5000"`
		}
		if err := bindJSON(c, &req); err != nil {
			return nil
		}
		in.Caption = req.Caption
	}
	post, err := s.posts.UpdatePost(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/v1/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.posts.DeletePost(c.UserContext(), id, currentUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/v1/posts/:id/likes
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	like, err := s.likes.LikePost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}

// UnlikePost handles DELETE /api/v1/posts/:id/likes
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.likes.UnlikePost(c.UserContext(), id, currentUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListLikes handles GET /api/v1/posts/:id/likes
func (s *Server) ListLikes(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	likes, err := s.likes.ListLikes(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(likes)
}

// LikeCount handles GET /api/v1/posts/:id/likes/count
func (s *Server) LikeCount(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	n, err := s.likes.LikeCount(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"count": n})
}

// HasLiked handles GET /api/v1/posts/:id/likes/check
func (s *Server) HasLiked(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	liked, err := s.likes.HasLiked(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}
