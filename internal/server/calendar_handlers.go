package server

import (
	"strings"

	"nestling/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyCalendar handles GET /api/calendar/me
// @Summary The caller's pregnancy calendar
// @Tags calendar
// @Produce json
// @Success 200 {object} service.CalendarView
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /calendar/me [get]
func (s *Server) GetMyCalendar(c *fiber.Ctx) error {
	cal, err := s.calendars.Mine(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cal)
}

// CreateCalendar handles POST /api/calendar
// @Summary Start a pregnancy calendar
// @Tags calendar
// @Accept json
// @Produce json
// @Param request body service.CalendarInput true "Calendar"
// @Success 201 {object} service.CalendarView
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /calendar [post]
func (s *Server) CreateCalendar(c *fiber.Ctx) error {
	var in service.CalendarInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	cal, err := s.calendars.Create(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cal)
}

// entryRequest reads an entry from either a multipart form (with an optional
// "image" part) or a JSON body.
func entryRequest(c *fiber.Ctx) (service.EntryInput, *service.ImageUpload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var in service.EntryInput
		if err := parseBody(c, &in); err != nil {
			return in, nil, err
		}
		return in, nil, nil
	}

	in := service.EntryInput{
		Date:        c.FormValue("date"),
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
	}
	image, err := readUpload(c, "image")
	if err != nil {
		_ = respondError(c, err)
		return in, nil, errResponseWritten
	}
	return in, image, nil
}

// AddCalendarEntry handles POST /api/calendar/:uuid/entries
// @Summary Add a dated entry
// @Tags calendar
// @Accept multipart/form-data
// @Produce json
// @Param uuid path string true "Calendar token"
// @Param date formData string true "YYYY-MM-DD"
// @Param name formData string false "Title"
// @Param description formData string false "Notes"
// @Param image formData file false "Photo"
// @Success 201 {object} service.CalendarView
// @Security BearerAuth
// @Router /calendar/{uuid}/entries [post]
func (s *Server) AddCalendarEntry(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	in, image, err := entryRequest(c)
	if err != nil {
		return nil
	}
	cal, err := s.calendars.AddEntry(c.UserContext(), identity(c), token, in, image)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cal)
}

// UpdateCalendarEntry handles PUT /api/calendar/:uuid/entries/:date
func (s *Server) UpdateCalendarEntry(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	in, image, err := entryRequest(c)
	if err != nil {
		return nil
	}
	cal, err := s.calendars.UpdateEntry(c.UserContext(), identity(c), token, c.Params("date"), in, image)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cal)
}

// DeleteCalendarEntry handles DELETE /api/calendar/:uuid/entries/:date
func (s *Server) DeleteCalendarEntry(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	cal, err := s.calendars.DeleteEntry(c.UserContext(), identity(c), token, c.Params("date"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cal)
}
