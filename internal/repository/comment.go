package repository

import (
	"context"

	"nestling/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByUUID(ctx context.Context, token uuid.UUID) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID uint) ([]models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func withCommentAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).Preload("User.Type")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return translateError(r.db.WithContext(ctx).Create(comment).Error, "Comment", comment.UUID)
}

func (r *commentRepository) GetByUUID(ctx context.Context, token uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := withCommentAuthor(r.db.WithContext(ctx)).Where("uuid = ?", token).First(&comment).Error; err != nil {
		return nil, translateError(err, "Comment", token)
	}
	return &comment, nil
}

// ListByArticle returns the article's comments newest first.
func (r *commentRepository) ListByArticle(ctx context.Context, articleID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := withCommentAuthor(r.db.WithContext(ctx)).
		Where("article_id = ?", articleID).
		Order("published_at DESC, id DESC").
		Find(&comments).Error
	return comments, wrapInternal(err)
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return wrapInternal(r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error)
}
