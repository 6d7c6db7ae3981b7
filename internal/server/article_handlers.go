package server

import (
	"nestling/internal/repository"
	"nestling/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateArticle handles POST /api/articles
// @Summary Publish an article
// @Tags articles
// @Accept json
// @Produce json
// @Param request body service.ArticleInput true "Article"
// @Success 201 {object} service.ArticleView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var in service.ArticleInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	article, err := s.articles.Create(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// ListArticles handles GET /api/articles/page
// @Summary List articles, newest first
// @Tags articles
// @Produce json
// @Param page query int false "1-based page"
// @Param tags query string false "Comma separated tag ids"
// @Param type query int false "Article type id"
// @Success 200 {array} service.ArticleView
// @Header 200 {integer} X-Count-Page "Total pages"
// @Header 200 {integer} X-Count-Item "Page size"
// @Router /articles/page [get]
func (s *Server) ListArticles(c *fiber.Ctx) error {
	tags, err := parseTags(c.Query("tags"))
	if err != nil {
		return respondError(c, err)
	}
	typeID := c.QueryInt("type", 0)
	if typeID < 0 {
		typeID = 0
	}
	page, err := s.articles.Page(c.UserContext(), c.QueryInt("page", 1), repository.ArticleFilter{
		Tags:   tags,
		TypeID: uint(typeID),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

// ListLikedArticles handles GET /api/articles/page/by-user
// @Summary List articles the caller liked
// @Tags articles
// @Produce json
// @Param page query int false "1-based page"
// @Success 200 {array} service.ArticleView
// @Security BearerAuth
// @Router /articles/page/by-user [get]
func (s *Server) ListLikedArticles(c *fiber.Ctx) error {
	page, err := s.articles.PageLiked(c.UserContext(), identity(c), c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

// SearchArticles handles GET /api/articles/search
// @Summary Search articles by name
// @Tags articles
// @Produce json
// @Param q query string true "Substring of the name"
// @Param count query int false "Maximum results"
// @Success 200 {array} service.ArticleView
// @Router /articles/search [get]
func (s *Server) SearchArticles(c *fiber.Ctx) error {
	articles, err := s.articles.Search(c.UserContext(), c.Query("q"), c.QueryInt("count", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articles)
}

// GetArticle handles GET /api/articles/:uuid
// @Summary Get an article
// @Tags articles
// @Produce json
// @Param uuid path string true "Article token"
// @Success 200 {object} service.ArticleView
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{uuid} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	article, err := s.articles.Get(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// UpdateArticle handles PUT /api/articles/:uuid
// @Summary Update an article
// @Tags articles
// @Accept json
// @Produce json
// @Param uuid path string true "Article token"
// @Param request body service.ArticleInput true "Article"
// @Success 200 {object} service.ArticleView
// @Security BearerAuth
// @Router /articles/{uuid} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	var in service.ArticleInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	article, err := s.articles.Update(c.UserContext(), identity(c), token, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// DeleteArticle handles DELETE /api/articles/:uuid
// @Summary Delete an article with its likes and comments
// @Tags articles
// @Param uuid path string true "Article token"
// @Success 204
// @Security BearerAuth
// @Router /articles/{uuid} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	if err := s.articles.Delete(c.UserContext(), identity(c), token); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetArticleLikes handles GET /api/articles/:uuid/likes
// @Summary Like count and whether the caller liked
// @Tags articles
// @Produce json
// @Param uuid path string true "Article token"
// @Success 200 {object} service.MembershipView
// @Router /articles/{uuid}/likes [get]
func (s *Server) GetArticleLikes(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	info, err := s.articles.Likes(c.UserContext(), optionalIdentity(c), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// LikeArticle handles POST /api/articles/:uuid/likes
// @Summary Like an article
// @Tags articles
// @Produce json
// @Param uuid path string true "Article token"
// @Success 200 {object} service.MembershipView
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{uuid}/likes [post]
func (s *Server) LikeArticle(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	info, err := s.articles.Like(c.UserContext(), identity(c), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// UnlikeArticle handles DELETE /api/articles/:uuid/likes
// @Summary Remove the caller's like
// @Tags articles
// @Produce json
// @Param uuid path string true "Article token"
// @Success 200 {object} service.MembershipView
// @Security BearerAuth
// @Router /articles/{uuid}/likes [delete]
func (s *Server) UnlikeArticle(c *fiber.Ctx) error {
	token, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	info, err := s.articles.Unlike(c.UserContext(), identity(c), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}
