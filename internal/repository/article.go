package repository

import (
	"context"

	"nestling/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleFilter narrows an article listing. Zero values mean no filter.
type ArticleFilter struct {
	Tags   []uint
	TypeID uint
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByUUID(ctx context.Context, token uuid.UUID) (*models.Article, error)
	Page(ctx context.Context, filter ArticleFilter, page PageRequest) ([]models.Article, int64, error)
	PageLikedBy(ctx context.Context, userID uint, page PageRequest) ([]models.Article, int64, error)
	Search(ctx context.Context, query string, count int) ([]models.Article, error)
	Update(ctx context.Context, article *models.Article, tags []models.Tag) error
	Delete(ctx context.Context, article *models.Article) error

	AddLike(ctx context.Context, userID, articleID uint) error
	RemoveLike(ctx context.Context, userID, articleID uint) error
	LikeInfo(ctx context.Context, articleID, userID uint) (int64, bool, error)
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

const articleOrder = "articles.published_at DESC, articles.id DESC"

func (r *articleRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Preload("Author.Type").
		Preload("Type").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.id") })
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return translateError(r.db.WithContext(ctx).Create(article).Error, "Article", article.UUID)
}

func (r *articleRepository) GetByUUID(ctx context.Context, token uuid.UUID) (*models.Article, error) {
	var article models.Article
	err := r.withDetails(r.db.WithContext(ctx)).Where("uuid = ?", token).First(&article).Error
	if err != nil {
		return nil, translateError(err, "Article", token)
	}
	return &article, nil
}

func (r *articleRepository) filtered(ctx context.Context, filter ArticleFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Article{}).
		Scopes(taggedWith(r.db.WithContext(ctx), "articles.id", "tag_articles", "article_id", filter.Tags))
	if filter.TypeID != 0 {
		q = q.Where("articles.type_id = ?", filter.TypeID)
	}
	return q
}

// Page returns one page of articles and the total number of matching rows.
// The count and the page are separate reads.
func (r *articleRepository) Page(ctx context.Context, filter ArticleFilter, page PageRequest) ([]models.Article, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, wrapInternal(err)
	}

	articles := []models.Article{}
	err := r.withDetails(r.filtered(ctx, filter)).
		Order(articleOrder).
		Scopes(paginate(page)).
		Find(&articles).Error
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return articles, total, nil
}

func (r *articleRepository) likedBy(ctx context.Context, userID uint) *gorm.DB {
	sub := r.db.WithContext(ctx).Model(&models.Like{}).Select("article_id").Where("user_id = ?", userID)
	return r.db.WithContext(ctx).Model(&models.Article{}).Where("articles.id IN (?)", sub)
}

func (r *articleRepository) PageLikedBy(ctx context.Context, userID uint, page PageRequest) ([]models.Article, int64, error) {
	var total int64
	if err := r.likedBy(ctx, userID).Count(&total).Error; err != nil {
		return nil, 0, wrapInternal(err)
	}

	articles := []models.Article{}
	err := r.withDetails(r.likedBy(ctx, userID)).
		Order(articleOrder).
		Scopes(paginate(page)).
		Find(&articles).Error
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return articles, total, nil
}

func (r *articleRepository) Search(ctx context.Context, query string, count int) ([]models.Article, error) {
	cond, arg := containsFold("articles.name", query)
	articles := []models.Article{}
	err := r.withDetails(r.db.WithContext(ctx)).
		Where(cond, arg).
		Order(articleOrder).
		Limit(count).
		Find(&articles).Error
	return articles, wrapInternal(err)
}

// Update saves the article's own columns and replaces its tag set.
func (r *articleRepository) Update(ctx context.Context, article *models.Article, tags []models.Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(article).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, article, tags); err != nil {
			return err
		}
		article.Tags = tags
		return nil
	})
	return translateError(err, "Article", article.UUID)
}

// Delete removes the article with its likes, comments and tag links.
func (r *articleRepository) Delete(ctx context.Context, article *models.Article) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", article.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(article).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Article{}, article.ID).Error
	})
	return translateError(err, "Article", article.UUID)
}

// AddLike inserts the like row. A second like by the same user is a conflict.
func (r *articleRepository) AddLike(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).Create(&models.Like{UserID: userID, ArticleID: articleID}).Error
	if isUniqueViolation(err) {
		return models.NewConflictError("Article is already liked")
	}
	return wrapInternal(err)
}

// RemoveLike deletes the like row if present.
func (r *articleRepository) RemoveLike(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.Like{}).Error
	return wrapInternal(err)
}

// LikeInfo returns the like count and whether userID is among the likers.
// userID 0 is never a member.
func (r *articleRepository) LikeInfo(ctx context.Context, articleID, userID uint) (int64, bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("article_id = ?", articleID).Count(&count).Error; err != nil {
		return 0, false, wrapInternal(err)
	}
	if userID == 0 || count == 0 {
		return count, false, nil
	}

	var mine int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&mine).Error
	if err != nil {
		return 0, false, wrapInternal(err)
	}
	return count, mine > 0, nil
}
