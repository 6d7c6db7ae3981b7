package server

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"nestling/internal/middleware"
	"nestling/internal/models"
	"nestling/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// errResponseWritten means a helper already committed the response. Handlers
// return nil when they see it so the error handler does not overwrite it.
var errResponseWritten = errors.New("response already written")

// Listing headers.
const (
	headerCountPage = "X-Count-Page"
	headerCountItem = "X-Count-Item"
)

func statusFor(code string) int {
	switch code {
	case models.ErrCodeNotFound:
		return fiber.StatusNotFound
	case models.ErrCodeConflict:
		return fiber.StatusConflict
	case models.ErrCodeForbidden:
		return fiber.StatusForbidden
	case models.ErrCodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.ErrCodeValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError maps a service error onto its status. Internal causes are
// logged and replaced by a fixed message.
func respondError(c *fiber.Ctx, err error) error {
	code := models.ErrorCode(err)
	status := statusFor(code)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

func badRequest(c *fiber.Ctx, message string) error {
	_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
	return errResponseWritten
}

// parseUUID reads a token route parameter. On failure it writes a 400.
func parseUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	token, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, badRequest(c, "Invalid "+param)
	}
	return token, nil
}

// parseID reads a positive integer route parameter. On failure it writes a 400.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, badRequest(c, "Invalid "+param)
	}
	return uint(id), nil
}

// parseTags reads a comma separated id list such as "1,2,3".
func parseTags(raw string) ([]uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]uint, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseUint(p, 10, 32)
		if err != nil || id == 0 {
			return nil, models.NewValidationError("Invalid tag id " + strconv.Quote(p))
		}
		out = append(out, uint(id))
	}
	return out, nil
}

// parseBody decodes the JSON body into dest. On failure it writes a 400.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return nil
}

// identity returns the caller. Routes reaching it are behind AuthRequired.
func identity(c *fiber.Ctx) models.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

// optionalIdentity returns the caller when a valid token was sent.
func optionalIdentity(c *fiber.Ctx) *models.Identity {
	if id, ok := middleware.IdentityFrom(c); ok {
		return &id
	}
	return nil
}

func respondPage[T any](c *fiber.Ctx, page service.Page[T]) error {
	c.Set(headerCountPage, strconv.Itoa(page.Pages))
	c.Set(headerCountItem, strconv.Itoa(page.Size))
	return c.JSON(page.Items)
}

// readUpload returns the multipart file under field, or nil when none was sent.
func readUpload(c *fiber.Ctx, field string) (*service.ImageUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return nil, nil
		}
		return nil, models.NewValidationError("Invalid multipart upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
