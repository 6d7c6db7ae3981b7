package server

import (
	"fmt"
	"net/http"
	"testing"

	"nestling/internal/models"
	"nestling/internal/service"
	"nestling/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArticle(t *testing.T) {
	api := newTestAPI(t)
	in := service.ArticleInput{
		TypeID: api.ref.News.ID,
		Name:   "First trimester checklist",
		Tags:   []uint{api.ref.Tags[0].ID, api.ref.Tags[1].ID},
	}

	tests := []struct {
		name   string
		user   *models.User
		body   any
		status int
	}{
		{"admin creates", api.admin, in, http.StatusCreated},
		{"member is forbidden", api.member, in, http.StatusForbidden},
		{"anonymous is unauthorized", nil, in, http.StatusUnauthorized},
		{"unknown type", api.admin, service.ArticleInput{TypeID: 999, Name: "x"}, http.StatusBadRequest},
		{"missing name", api.admin, service.ArticleInput{TypeID: api.ref.News.ID}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(t, http.MethodPost, "/api/articles", tt.body, tt.user)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCreateArticleReturnsView(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/articles", service.ArticleInput{
		TypeID: api.ref.Guide.ID,
		Name:   "Sleep positions",
		Tags:   []uint{api.ref.Tags[2].ID},
	}, api.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	view := decode[service.ArticleView](t, resp)
	assert.NotEmpty(t, view.UUID)
	assert.Equal(t, "Sleep positions", view.Name)
	assert.Equal(t, api.admin.UUID.String(), view.Author.UUID)
	assert.Equal(t, "guide", view.Type.Name)
	require.Len(t, view.Tags, 1)
	assert.Equal(t, "sport", view.Tags[0].Name)

	resp = api.do(t, http.MethodGet, "/api/articles/"+view.UUID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, view.UUID, decode[service.ArticleView](t, resp).UUID)
}

func TestListArticlesPaging(t *testing.T) {
	api := newTestAPI(t)
	testutil.CreateArticles(t, api.db, api.admin.ID, api.ref.News.ID, 45)

	resp := api.do(t, http.MethodGet, "/api/articles/page?page=1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3", resp.Header.Get(headerCountPage))
	assert.Equal(t, "20", resp.Header.Get(headerCountItem))

	items := decode[[]service.ArticleView](t, resp)
	require.Len(t, items, 20)
	assert.Equal(t, "Article 44", items[0].Name)
	assert.Equal(t, "Article 25", items[19].Name)

	resp = api.do(t, http.MethodGet, "/api/articles/page?page=4", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]service.ArticleView](t, resp))
}

func TestListArticlesFilters(t *testing.T) {
	api := newTestAPI(t)
	health, food := api.ref.Tags[0], api.ref.Tags[1]
	testutil.CreateArticles(t, api.db, api.admin.ID, api.ref.News.ID, 2, health)
	testutil.CreateArticles(t, api.db, api.admin.ID, api.ref.Guide.ID, 3, food)

	resp := api.do(t, http.MethodGet, fmt.Sprintf("/api/articles/page?tags=%d,%d", health.ID, food.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]service.ArticleView](t, resp), 5)

	resp = api.do(t, http.MethodGet, fmt.Sprintf("/api/articles/page?type=%d", api.ref.Guide.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]service.ArticleView](t, resp), 3)

	resp = api.do(t, http.MethodGet, "/api/articles/page?tags=abc", nil, nil)
	assertError(t, resp, http.StatusBadRequest, models.ErrCodeValidation)
}

func TestArticleLikes(t *testing.T) {
	api := newTestAPI(t)
	article := testutil.CreateArticles(t, api.db, api.admin.ID, api.ref.News.ID, 1)[0]
	path := "/api/articles/" + article.UUID.String() + "/likes"

	resp := api.do(t, http.MethodPost, path, nil, api.member)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.MembershipView{Count: 1, Member: true}, decode[service.MembershipView](t, resp))

	resp = api.do(t, http.MethodPost, path, nil, api.member)
	assertError(t, resp, http.StatusConflict, models.ErrCodeConflict)

	resp = api.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.MembershipView{Count: 1, Member: false}, decode[service.MembershipView](t, resp))

	resp = api.do(t, http.MethodGet, "/api/articles/page/by-user", nil, api.member)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]service.ArticleView](t, resp), 1)

	resp = api.do(t, http.MethodDelete, path, nil, api.member)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.MembershipView{Count: 0, Member: false}, decode[service.MembershipView](t, resp))

	resp = api.do(t, http.MethodPost, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestArticleNotFoundAndBadToken(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/articles/00000000-0000-0000-0000-000000000001", nil, nil)
	assertError(t, resp, http.StatusNotFound, models.ErrCodeNotFound)

	resp = api.do(t, http.MethodGet, "/api/articles/not-a-uuid", nil, nil)
	assertError(t, resp, http.StatusBadRequest, models.ErrCodeValidation)
}

func TestDeleteArticle(t *testing.T) {
	api := newTestAPI(t)
	article := testutil.CreateArticles(t, api.db, api.admin.ID, api.ref.News.ID, 1)[0]
	path := "/api/articles/" + article.UUID.String()

	resp := api.do(t, http.MethodDelete, path, nil, api.member)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.do(t, http.MethodDelete, path, nil, api.admin)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = api.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestComments(t *testing.T) {
	api := newTestAPI(t)
	article := testutil.CreateArticles(t, api.db, api.admin.ID, api.ref.News.ID, 1)[0]
	path := "/api/articles/" + article.UUID.String() + "/comments"

	resp := api.do(t, http.MethodPost, path, map[string]string{"content": "  Very helpful  "}, api.member)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decode[service.CommentView](t, resp)
	assert.Equal(t, "Very helpful", comment.Content)

	resp = api.do(t, http.MethodPost, path, map[string]string{"content": "   "}, api.member)
	assertError(t, resp, http.StatusBadRequest, models.ErrCodeValidation)

	resp = api.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]service.CommentView](t, resp), 1)

	other := testutil.CreateUser(t, api.db, api.ref.UserType.ID, "other@example.com")
	resp = api.do(t, http.MethodDelete, "/api/comments/"+comment.UUID, nil, other)
	assertError(t, resp, http.StatusForbidden, models.ErrCodeForbidden)

	resp = api.do(t, http.MethodDelete, "/api/comments/"+comment.UUID, nil, api.admin)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
