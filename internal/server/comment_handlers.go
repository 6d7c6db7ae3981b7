package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/articles/:uuid/comments
// @Summary List an article's comments, newest first
// @Tags comments
// @Produce json
// @Param uuid path string true "Article token"
// @Success 200 {array} service.CommentView
// @Router /articles/{uuid}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	comments, err := s.comments.List(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// AddComment handles POST /api/articles/:uuid/comments
// @Summary Comment on an article
// @Tags comments
// @Accept json
// @Produce json
// @Param uuid path string true "Article token"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} service.CommentView
// @Security BearerAuth
// @Router /articles/{uuid}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.comments.Add(c.UserContext(), identity(c), token, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:uuid
// @Summary Delete a comment (author or moderator)
// @Tags comments
// @Param uuid path string true "Comment token"
// @Success 204
// @Security BearerAuth
// @Router /comments/{uuid} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	if err := s.comments.Delete(c.UserContext(), identity(c), token); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
