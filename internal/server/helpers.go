package server

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"unicode"

	"cadence/internal/middleware"
	"cadence/internal/models"
	"cadence/internal/storage"
	"cadence/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// fail answers err with the status its AppError code maps to.
func fail(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnsupportedMediaType:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	default:
		return models.CodeInternal
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = badRequest(c, "Invalid "+humanizeParam(param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "targetId" -> "target ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// bindJSON parses and validates a JSON body. On failure it writes a 400 and
// returns errResponseWritten.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = badRequest(c, "Invalid request body")
		return errResponseWritten
	}
	if err := validation.Struct(dst); err != nil {
		_ = badRequest(c, err.Error())
		return errResponseWritten
	}
	return nil
}

// currentUserID is the principal set by AuthRequired or OptionalViewer, or 0.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := middleware.UserIDFromLocals(c)
	return id
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// uploadsFrom turns the named multipart file field into uploads.
func uploadsFrom(form *multipart.Form, field string) []storage.Upload {
	if form == nil {
		return nil
	}
	headers := form.File[field]
	uploads := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, uploadOf(fh))
	}
	return uploads
}

func uploadOf(fh *multipart.FileHeader) storage.Upload {
	return storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// formValue returns the first value of field and whether it was sent at all.
func formValue(form *multipart.Form, field string) (string, bool) {
	if form == nil {
		return "", false
	}
	v, ok := form.Value[field]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// formBool reads a checkbox-style field, falling back to def when it is absent.
func formBool(form *multipart.Form, field string, def bool) bool {
	v, ok := formValue(form, field)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func optional(form *multipart.Form, field string) *string {
	if v, ok := formValue(form, field); ok {
		return &v
	}
	return nil
}
