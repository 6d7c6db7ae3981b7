package server

import (
	"nestling/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Reference data lives under /api/env. Reads are public, writes need the
// manage_reference capability.

func (s *Server) ListCities(c *fiber.Ctx) error {
	cities, err := s.refs.Cities(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cities)
}

func (s *Server) GetCity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	city, err := s.refs.City(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(city)
}

// CreateCity handles POST /api/env/cities
// @Summary Add a city
// @Tags reference
// @Accept json
// @Produce json
// @Param request body service.CityInput true "City"
// @Success 201 {object} models.City
// @Security BearerAuth
// @Router /env/cities [post]
func (s *Server) CreateCity(c *fiber.Ctx) error {
	var in service.CityInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	city, err := s.refs.CreateCity(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(city)
}

func (s *Server) UpdateCity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.CityInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	city, err := s.refs.UpdateCity(c.UserContext(), identity(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(city)
}

func (s *Server) ListTypeArticles(c *fiber.Ctx) error {
	types, err := s.refs.TypeArticles(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types)
}

func (s *Server) GetTypeArticle(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	t, err := s.refs.TypeArticle(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *Server) CreateTypeArticle(c *fiber.Ctx) error {
	var in service.NamedInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	t, err := s.refs.CreateTypeArticle(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (s *Server) UpdateTypeArticle(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.NamedInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	t, err := s.refs.UpdateTypeArticle(c.UserContext(), identity(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.refs.Tags(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}

// SearchTags handles GET /api/env/tags/search?q=&count=
func (s *Server) SearchTags(c *fiber.Ctx) error {
	tags, err := s.refs.SearchTags(c.UserContext(), c.Query("q"), c.QueryInt("count", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}

func (s *Server) GetTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	tag, err := s.refs.Tag(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tag)
}

func (s *Server) CreateTag(c *fiber.Ctx) error {
	var in service.NamedInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	tag, err := s.refs.CreateTag(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (s *Server) UpdateTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.NamedInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	tag, err := s.refs.UpdateTag(c.UserContext(), identity(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tag)
}
