package server

import (
	"nestling/internal/models"
	"nestling/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUserTypes handles GET /api/users/types
func (s *Server) ListUserTypes(c *fiber.Ctx) error {
	types, err := s.users.Types(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types)
}

// CreateUser handles POST /api/users
// @Summary Create a user account
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.UserInput true "User"
// @Success 201 {object} service.UserView
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var in service.UserInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	user, err := s.users.Create(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// ListUsers handles GET /api/users/page
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "1-based page"
// @Success 200 {array} service.UserView
// @Security BearerAuth
// @Router /users/page [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page, err := s.users.Page(c.UserContext(), identity(c), c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

// SearchUsers handles GET /api/users/search
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.users.Search(c.UserContext(), identity(c), c.Query("q"), c.QueryInt("count", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ChangePassword handles PUT /api/users/me/password
// @Summary Change the caller's password
// @Tags users
// @Accept json
// @Param request body service.PasswordChange true "Passwords"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me/password [put]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var in service.PasswordChange
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	if err := s.users.ChangePassword(c.UserContext(), identity(c), in); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadAvatar handles POST /api/users/me/avatar
// @Summary Replace the caller's avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 200 {object} service.UserView
// @Security BearerAuth
// @Router /users/me/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	upload, err := readUpload(c, "file")
	if err != nil {
		return respondError(c, err)
	}
	if upload == nil {
		return respondError(c, models.NewValidationError("Image file is required"))
	}
	user, err := s.users.UploadAvatar(c.UserContext(), identity(c), *upload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUser handles GET /api/users/:uuid
func (s *Server) GetUser(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	user, err := s.users.Get(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /api/users/:uuid. Users may edit themselves, admins anyone.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	var in service.UserInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	user, err := s.users.Update(c.UserContext(), identity(c), token, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:uuid
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	if err := s.users.Delete(c.UserContext(), identity(c), token); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
