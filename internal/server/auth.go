package server

import (
	"cadence/internal/middleware"
	"cadence/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired rejects requests without a valid bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := middleware.BearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Authorization required"))
		}
		userID, err := middleware.ParseToken(s.tokens, token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Invalid or expired token"))
		}
		s.setPrincipal(c, userID)
		return c.Next()
	}
}

// OptionalViewer records the principal when a valid token is present. A
// missing or invalid token is not an error on public reads.
func (s *Server) OptionalViewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, err := middleware.BearerToken(c); err == nil {
			if userID, err := middleware.ParseToken(s.tokens, token); err == nil {
				s.setPrincipal(c, userID)
			}
		}
		return c.Next()
	}
}

func (s *Server) setPrincipal(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}
