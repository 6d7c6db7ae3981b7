package service

import (
	"context"
	"strings"
	"time"

	"nestling/internal/models"
	"nestling/internal/repository"
	"nestling/internal/storage"
	"nestling/internal/validation"

	"github.com/google/uuid"
)

type CommentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
	users    repository.UserRepository
	views    viewMapper
}

func NewCommentService(
	comments repository.CommentRepository,
	articles repository.ArticleRepository,
	users repository.UserRepository,
	store storage.Store,
) *CommentService {
	return &CommentService{
		comments: comments,
		articles: articles,
		users:    users,
		views:    viewMapper{store: store},
	}
}

// Add posts a comment on the article as the caller.
func (s *CommentService) Add(ctx context.Context, id models.Identity, articleToken uuid.UUID, content string) (*CommentView, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateComment(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	article, err := s.articles.GetByUUID(ctx, articleToken)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:      user.ID,
		ArticleID:   article.ID,
		PublishedAt: time.Now().UTC(),
		Content:     content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.User = *user

	v := s.views.comment(comment)
	return &v, nil
}

// List returns the article's comments, newest first.
func (s *CommentService) List(ctx context.Context, articleToken uuid.UUID) ([]CommentView, error) {
	article, err := s.articles.GetByUUID(ctx, articleToken)
	if err != nil {
		return nil, err
	}
	rows, err := s.comments.ListByArticle(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	out := make([]CommentView, 0, len(rows))
	for i := range rows {
		out = append(out, s.views.comment(&rows[i]))
	}
	return out, nil
}

// Delete removes a comment. Only its author or a moderator may do so.
func (s *CommentService) Delete(ctx context.Context, id models.Identity, token uuid.UUID) error {
	comment, err := s.comments.GetByUUID(ctx, token)
	if err != nil {
		return err
	}
	if !id.Can(models.CapModerate) {
		user, err := callerUser(ctx, s.users, id)
		if err != nil {
			return err
		}
		if user.ID != comment.UserID {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}
	return s.comments.Delete(ctx, comment.ID)
}
