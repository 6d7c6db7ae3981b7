package service

import (
	"context"
	"time"

	"nestling/internal/cache"
	"nestling/internal/models"
	"nestling/internal/observability"
	"nestling/internal/repository"
	"nestling/internal/storage"
	"nestling/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const maxTitleLen = 255

type ArticleService struct {
	articles repository.ArticleRepository
	users    repository.UserRepository
	refs     repository.ReferenceRepository
	views    viewMapper
	paging   Paging
}

// ArticleInput is the payload for creating or updating an article.
type ArticleInput struct {
	TypeID          uint   `json:"type_id"`
	Name            string `json:"name"`
	DescriptionLite string `json:"description_lite"`
	Description     string `json:"description"`
	Tags            []uint `json:"tags"`
}

func NewArticleService(
	articles repository.ArticleRepository,
	users repository.UserRepository,
	refs repository.ReferenceRepository,
	store storage.Store,
	paging Paging,
) *ArticleService {
	return &ArticleService{
		articles: articles,
		users:    users,
		refs:     refs,
		views:    viewMapper{store: store},
		paging:   paging,
	}
}

func (s *ArticleService) validate(ctx context.Context, in ArticleInput) (*models.TypeArticle, []models.Tag, error) {
	if err := validation.ValidateRequired("name", in.Name, maxTitleLen); err != nil {
		return nil, nil, models.NewValidationError(err.Error())
	}
	typ, err := s.refs.GetTypeArticle(ctx, in.TypeID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, nil, models.NewValidationError("Unknown article type")
		}
		return nil, nil, err
	}
	tags, err := s.refs.TagsByIDs(ctx, in.Tags)
	if err != nil {
		return nil, nil, err
	}
	return typ, tags, nil
}

// Create publishes an article authored by the caller.
func (s *ArticleService) Create(ctx context.Context, id models.Identity, in ArticleInput) (*ArticleView, error) {
	if err := requireCapability(id, models.CapManageContent); err != nil {
		return nil, err
	}
	author, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	typ, tags, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		AuthorID:        author.ID,
		PublishedAt:     time.Now().UTC(),
		TypeID:          typ.ID,
		Name:            in.Name,
		DescriptionLite: in.DescriptionLite,
		Description:     in.Description,
		Tags:            tags,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	article.Author = *author
	article.Type = *typ

	v := s.views.article(article)
	return &v, nil
}

// Get returns the article detail, served from cache when possible.
func (s *ArticleService) Get(ctx context.Context, token uuid.UUID) (*ArticleView, error) {
	var v ArticleView
	err := cache.Aside(ctx, cache.ArticleKey(token.String()), &v, cache.ArticleTTL, func() error {
		article, err := s.articles.GetByUUID(ctx, token)
		if err != nil {
			return err
		}
		v = s.views.article(article)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Page lists articles newest first. Pages past the end are empty.
func (s *ArticleService) Page(ctx context.Context, page int, filter repository.ArticleFilter) (Page[ArticleView], error) {
	ctx, span := observability.StartSpan(ctx, "ArticleService.Page",
		attribute.Int("page", page),
		attribute.Int("tags", len(filter.Tags)),
	)
	req := s.paging.request(page)
	rows, total, err := s.articles.Page(ctx, filter, req)
	observability.EndSpan(span, err)
	if err != nil {
		return Page[ArticleView]{}, err
	}
	return newPage(rows, total, req, s.views.article), nil
}

// PageLiked lists the articles the caller liked.
func (s *ArticleService) PageLiked(ctx context.Context, id models.Identity, page int) (Page[ArticleView], error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return Page[ArticleView]{}, err
	}
	req := s.paging.request(page)
	rows, total, err := s.articles.PageLikedBy(ctx, user.ID, req)
	if err != nil {
		return Page[ArticleView]{}, err
	}
	return newPage(rows, total, req, s.views.article), nil
}

func (s *ArticleService) Search(ctx context.Context, query string, count int) ([]ArticleView, error) {
	rows, err := s.articles.Search(ctx, query, s.paging.searchCount(count))
	if err != nil {
		return nil, err
	}
	out := make([]ArticleView, 0, len(rows))
	for i := range rows {
		out = append(out, s.views.article(&rows[i]))
	}
	return out, nil
}

// Update rewrites the article and replaces its tag set wholesale.
func (s *ArticleService) Update(ctx context.Context, id models.Identity, token uuid.UUID, in ArticleInput) (*ArticleView, error) {
	if err := requireCapability(id, models.CapManageContent); err != nil {
		return nil, err
	}
	article, err := s.articles.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	typ, tags, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	article.TypeID = typ.ID
	article.Type = *typ
	article.Name = in.Name
	article.DescriptionLite = in.DescriptionLite
	article.Description = in.Description
	if err := s.articles.Update(ctx, article, tags); err != nil {
		return nil, err
	}
	cache.InvalidateArticle(ctx, token.String())

	v := s.views.article(article)
	return &v, nil
}

// Delete removes the article with its likes, comments and tag links.
func (s *ArticleService) Delete(ctx context.Context, id models.Identity, token uuid.UUID) error {
	if err := requireCapability(id, models.CapManageContent); err != nil {
		return err
	}
	article, err := s.articles.GetByUUID(ctx, token)
	if err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, article); err != nil {
		return err
	}
	cache.InvalidateArticle(ctx, token.String())
	return nil
}

// Like adds the caller's like. Liking twice is a conflict.
func (s *ArticleService) Like(ctx context.Context, id models.Identity, token uuid.UUID) (*MembershipView, error) {
	user, article, err := s.userAndArticle(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if err := s.articles.AddLike(ctx, user.ID, article.ID); err != nil {
		return nil, err
	}
	return s.likeInfo(ctx, article.ID, user.ID)
}

// Unlike removes the caller's like if present.
func (s *ArticleService) Unlike(ctx context.Context, id models.Identity, token uuid.UUID) (*MembershipView, error) {
	user, article, err := s.userAndArticle(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if err := s.articles.RemoveLike(ctx, user.ID, article.ID); err != nil {
		return nil, err
	}
	return s.likeInfo(ctx, article.ID, user.ID)
}

// Likes reports the like count. An anonymous caller (nil id) is never a member.
func (s *ArticleService) Likes(ctx context.Context, id *models.Identity, token uuid.UUID) (*MembershipView, error) {
	article, err := s.articles.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	var userID uint
	if id != nil {
		if user, err := s.users.GetByUUID(ctx, id.UserUUID); err == nil {
			userID = user.ID
		}
	}
	return s.likeInfo(ctx, article.ID, userID)
}

func (s *ArticleService) likeInfo(ctx context.Context, articleID, userID uint) (*MembershipView, error) {
	count, member, err := s.articles.LikeInfo(ctx, articleID, userID)
	if err != nil {
		return nil, err
	}
	return &MembershipView{Count: count, Member: member}, nil
}

func (s *ArticleService) userAndArticle(ctx context.Context, id models.Identity, token uuid.UUID) (*models.User, *models.Article, error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, nil, err
	}
	article, err := s.articles.GetByUUID(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	return user, article, nil
}
