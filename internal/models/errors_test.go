package models

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"conflict", NewConflictError("dup"), fiber.StatusConflict},
		{"forbidden", NewForbiddenError("no"), fiber.StatusForbidden},
		{"unauthorized", NewUnauthorizedError("login"), fiber.StatusUnauthorized},
		{"storage", NewStorageError("disk", errors.New("full")), fiber.StatusBadGateway},
		{"internal", NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NewConflictError("dup")), fiber.StatusConflict},
		{"plain", errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewForbiddenError("nope"))
	assert.True(t, HasCode(err, CodeForbidden))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestRespondWithError_HidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: secret")))
	})
	app.Get("/storage", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadGateway, NewStorageError("upload failed", errors.New("disk full")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := readBody(t, resp.Body)
	assert.NotContains(t, body, "secret")

	resp, err = app.Test(httptest.NewRequest("GET", "/storage", nil))
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp.Body), "disk full")
}

func TestMediaTypeFor(t *testing.T) {
	mt, ok := MediaTypeFor("image/png")
	assert.True(t, ok)
	assert.Equal(t, MediaTypeImage, mt)

	mt, ok = MediaTypeFor(" Video/MP4 ")
	assert.True(t, ok)
	assert.Equal(t, MediaTypeVideo, mt)

	_, ok = MediaTypeFor("application/pdf")
	assert.False(t, ok)
	_, ok = MediaTypeFor("")
	assert.False(t, ok)
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "Ada", (&User{FirstName: " Ada "}).DisplayName())
	assert.Equal(t, "", (*User)(nil).DisplayName())
}
