package service

import (
	"context"
	"testing"

	"nestling/internal/cache"
	"nestling/internal/models"
	"nestling/internal/repository"
	"nestling/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		cache.SetClient(nil)
		mr.Close()
	})
	return mr
}

func TestArticleService_CreateStampsAuthorAndDropsUnknownTags(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	got, err := h.articles.Create(ctx, h.adminID, ArticleInput{
		TypeID:          h.ref.Guide.ID,
		Name:            "Sleep in the third trimester",
		DescriptionLite: "short",
		Description:     "long",
		Tags:            []uint{h.ref.Tags[1].ID, 4040},
	})
	require.NoError(t, err)
	assert.Equal(t, h.admin.UUID.String(), got.Author.UUID)
	assert.Equal(t, testBaseURL+"/"+models.DefaultIconKey, got.Author.Icon)
	assert.Equal(t, "guide", got.Type.Name)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "food", got.Tags[0].Name)
	assert.False(t, got.PublishedAt.IsZero())

	detail, err := h.articles.Get(ctx, uuid.MustParse(got.UUID))
	require.NoError(t, err)
	assert.Equal(t, got.Name, detail.Name)
	require.Len(t, detail.Tags, 1)
}

func TestArticleService_CreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.articles.Create(ctx, h.adminID, ArticleInput{TypeID: h.ref.News.ID})
	assertCode(t, err, models.ErrCodeValidation)

	_, err = h.articles.Create(ctx, h.adminID, ArticleInput{TypeID: 999, Name: "x"})
	assertCode(t, err, models.ErrCodeValidation)

	_, err = h.articles.Create(ctx, h.userID, ArticleInput{TypeID: h.ref.News.ID, Name: "x"})
	assertCode(t, err, models.ErrCodeForbidden)
}

func TestArticleService_PagingOverFortyFive(t *testing.T) {
	h := newHarness(t)
	testutil.CreateArticles(t, h.db, h.admin.ID, h.ref.News.ID, 45)
	ctx := context.Background()

	first, err := h.articles.Page(ctx, 1, repository.ArticleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Pages)
	require.Len(t, first.Items, 20)
	assert.Equal(t, "Article 44", first.Items[0].Name)
	assert.Equal(t, "Article 25", first.Items[19].Name)

	last, err := h.articles.Page(ctx, 3, repository.ArticleFilter{})
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)

	beyond, err := h.articles.Page(ctx, 4, repository.ArticleFilter{})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 3, beyond.Pages)
}

func TestArticleService_UpdateReplacesTagsAndInvalidatesCache(t *testing.T) {
	mr := useMiniredis(t)
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.articles.Create(ctx, h.adminID, ArticleInput{
		TypeID: h.ref.News.ID,
		Name:   "Before",
		Tags:   []uint{h.ref.Tags[0].ID, h.ref.Tags[1].ID},
	})
	require.NoError(t, err)
	token := uuid.MustParse(created.UUID)

	_, err = h.articles.Get(ctx, token)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.ArticleKey(created.UUID)))

	updated, err := h.articles.Update(ctx, h.adminID, token, ArticleInput{
		TypeID: h.ref.Guide.ID,
		Name:   "After",
		Tags:   []uint{h.ref.Tags[2].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.False(t, mr.Exists(cache.ArticleKey(created.UUID)))

	detail, err := h.articles.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "After", detail.Name)
	assert.Equal(t, "guide", detail.Type.Name)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, "sport", detail.Tags[0].Name)
}

func TestArticleService_LikeRoundTrip(t *testing.T) {
	h := newHarness(t)
	article := testutil.CreateArticles(t, h.db, h.admin.ID, h.ref.News.ID, 1)[0]
	ctx := context.Background()

	before, err := h.articles.Likes(ctx, &h.userID, article.UUID)
	require.NoError(t, err)
	assert.Equal(t, &MembershipView{Count: 0, Member: false}, before)

	liked, err := h.articles.Like(ctx, h.userID, article.UUID)
	require.NoError(t, err)
	assert.Equal(t, &MembershipView{Count: 1, Member: true}, liked)

	_, err = h.articles.Like(ctx, h.userID, article.UUID)
	assertCode(t, err, models.ErrCodeConflict)

	anon, err := h.articles.Likes(ctx, nil, article.UUID)
	require.NoError(t, err)
	assert.Equal(t, &MembershipView{Count: 1, Member: false}, anon)

	mine, err := h.articles.PageLiked(ctx, h.userID, 1)
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, 1, mine.Pages)

	after, err := h.articles.Unlike(ctx, h.userID, article.UUID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	again, err := h.articles.Unlike(ctx, h.userID, article.UUID)
	require.NoError(t, err)
	assert.Equal(t, before, again)
}

func TestArticleService_DeleteRemovesEverything(t *testing.T) {
	h := newHarness(t)
	article := testutil.CreateArticles(t, h.db, h.admin.ID, h.ref.News.ID, 1, h.ref.Tags[0])[0]
	ctx := context.Background()

	_, err := h.articles.Like(ctx, h.userID, article.UUID)
	require.NoError(t, err)
	_, err = h.comments.Add(ctx, h.userID, article.UUID, "congrats")
	require.NoError(t, err)

	require.NoError(t, h.articles.Delete(ctx, h.adminID, article.UUID))

	_, err = h.articles.Get(ctx, article.UUID)
	assertCode(t, err, models.ErrCodeNotFound)

	var likes, comments int64
	require.NoError(t, h.db.Model(&models.Like{}).Count(&likes).Error)
	require.NoError(t, h.db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}

func TestArticleService_SearchCapsCount(t *testing.T) {
	h := newHarness(t)
	testutil.CreateArticles(t, h.db, h.admin.ID, h.ref.News.ID, 12)

	got, err := h.articles.Search(context.Background(), "article", 0)
	require.NoError(t, err)
	require.Len(t, got, DefaultSearchCount)
	assert.Equal(t, "Article 11", got[0].Name)

	got, err = h.articles.Search(context.Background(), "ARTICLE 0", 50)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}
