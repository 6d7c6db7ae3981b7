package server

import (
	"nestling/internal/repository"
	"nestling/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListEventStates handles GET /api/events/states
func (s *Server) ListEventStates(c *fiber.Ctx) error {
	states, err := s.events.States(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(states)
}

// CreateEvent handles POST /api/events
// @Summary Schedule an event
// @Tags events
// @Accept json
// @Produce json
// @Param request body service.EventInput true "Event"
// @Success 201 {object} service.EventView
// @Security BearerAuth
// @Router /events [post]
func (s *Server) CreateEvent(c *fiber.Ctx) error {
	var in service.EventInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	event, err := s.events.Create(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// ListEvents handles GET /api/events/page
// @Summary List events, latest first
// @Tags events
// @Produce json
// @Param page query int false "1-based page"
// @Param tags query string false "Comma separated tag ids"
// @Param city query int false "City id"
// @Success 200 {array} service.EventView
// @Router /events/page [get]
func (s *Server) ListEvents(c *fiber.Ctx) error {
	tags, err := parseTags(c.Query("tags"))
	if err != nil {
		return respondError(c, err)
	}
	cityID := c.QueryInt("city", 0)
	if cityID < 0 {
		cityID = 0
	}
	page, err := s.events.Page(c.UserContext(), c.QueryInt("page", 1), repository.EventFilter{
		Tags:   tags,
		CityID: uint(cityID),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

// ListRegisteredEvents handles GET /api/events/page/by-user
func (s *Server) ListRegisteredEvents(c *fiber.Ctx) error {
	page, err := s.events.PageRegistered(c.UserContext(), identity(c), c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

// SearchEvents handles GET /api/events/search
func (s *Server) SearchEvents(c *fiber.Ctx) error {
	events, err := s.events.Search(c.UserContext(), c.Query("q"), c.QueryInt("count", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}

// GetEvent handles GET /api/events/:uuid
// @Summary Get an event with its registrants
// @Tags events
// @Produce json
// @Param uuid path string true "Event token"
// @Success 200 {object} service.EventView
// @Router /events/{uuid} [get]
func (s *Server) GetEvent(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	event, err := s.events.Get(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

// UpdateEvent handles PUT /api/events/:uuid
func (s *Server) UpdateEvent(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	var in service.EventInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	event, err := s.events.Update(c.UserContext(), identity(c), token, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

// DeleteEvent handles DELETE /api/events/:uuid
func (s *Server) DeleteEvent(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	if err := s.events.Delete(c.UserContext(), identity(c), token); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetEventRegistrations handles GET /api/events/:uuid/registrations
func (s *Server) GetEventRegistrations(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	info, err := s.events.Registrations(c.UserContext(), optionalIdentity(c), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// RegisterForEvent handles POST /api/events/:uuid/registrations
func (s *Server) RegisterForEvent(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	info, err := s.events.Register(c.UserContext(), identity(c), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// UnregisterFromEvent handles DELETE /api/events/:uuid/registrations
func (s *Server) UnregisterFromEvent(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	info, err := s.events.Unregister(c.UserContext(), identity(c), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// RemoveEventRegistrant handles DELETE /api/events/:uuid/registrations/:userUUID
// @Summary Remove another user's registration
// @Tags events
// @Produce json
// @Param uuid path string true "Event token"
// @Param userUUID path string true "User token"
// @Success 200 {array} service.AuthorView
// @Security BearerAuth
// @Router /events/{uuid}/registrations/{userUUID} [delete]
func (s *Server) RemoveEventRegistrant(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	userToken, err := parseUUID(c, "userUUID")
	if err != nil {
		return nil
	}
	left, err := s.events.RemoveRegistrant(c.UserContext(), identity(c), token, userToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(left)
}
