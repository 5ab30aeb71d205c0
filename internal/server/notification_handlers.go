package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/v1/notifications
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	list, err := s.notifications.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (s *Server) UnreadCount(c *fiber.Ctx) error {
	n, err := s.notifications.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"count": n})
}

// MarkRead handles PUT /api/v1/notifications/:id/read
func (s *Server) MarkRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	n, err := s.notifications.MarkRead(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(n)
}

// MarkAllRead handles PUT /api/v1/notifications/read-all
func (s *Server) MarkAllRead(c *fiber.Ctx) error {
	n, err := s.notifications.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}
