package repository

import (
	"context"

	"nestling/internal/cache"
	"nestling/internal/models"

	"gorm.io/gorm"
)

// ReferenceRepository serves the small lookup tables. Lists are cached.
type ReferenceRepository interface {
	ListCities(ctx context.Context) ([]models.City, error)
	GetCity(ctx context.Context, id uint) (*models.City, error)
	SaveCity(ctx context.Context, city *models.City) error

	ListTypeArticles(ctx context.Context) ([]models.TypeArticle, error)
	GetTypeArticle(ctx context.Context, id uint) (*models.TypeArticle, error)
	SaveTypeArticle(ctx context.Context, t *models.TypeArticle) error

	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	SaveTag(ctx context.Context, tag *models.Tag) error
	SearchTags(ctx context.Context, query string, limit int) ([]models.Tag, error)
	TagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)

	ListTypeUsers(ctx context.Context) ([]models.TypeUser, error)
	GetTypeUser(ctx context.Context, id uint) (*models.TypeUser, error)
	TypeUserByName(ctx context.Context, name string) (*models.TypeUser, error)

	ListStateEvents(ctx context.Context) ([]models.StateEvent, error)
	GetStateEvent(ctx context.Context, id uint) (*models.StateEvent, error)
	StateEventByName(ctx context.Context, name string) (*models.StateEvent, error)
}

type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository creates a new ReferenceRepository
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func listCached[T any](ctx context.Context, db *gorm.DB, key string) ([]T, error) {
	rows := []T{}
	err := cache.Aside(ctx, key, &rows, cache.ReferenceTTL, func() error {
		return db.WithContext(ctx).Order("id").Find(&rows).Error
	})
	return rows, wrapInternal(err)
}

func getByID[T any](ctx context.Context, db *gorm.DB, resource string, id uint) (*T, error) {
	var row T
	if err := db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, translateError(err, resource, id)
	}
	return &row, nil
}

func getByName[T any](ctx context.Context, db *gorm.DB, resource, name string) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		return nil, translateError(err, resource, name)
	}
	return &row, nil
}

// save inserts rows with a zero id and updates the rest, then drops the cached list.
func save(ctx context.Context, db *gorm.DB, resource, key string, row any, id uint) error {
	var err error
	if id == 0 {
		err = db.WithContext(ctx).Create(row).Error
	} else {
		err = db.WithContext(ctx).Save(row).Error
	}
	if err != nil {
		return translateError(err, resource, id)
	}
	cache.Invalidate(ctx, key)
	return nil
}

func (r *referenceRepository) ListCities(ctx context.Context) ([]models.City, error) {
	return listCached[models.City](ctx, r.db, cache.CitiesKey)
}

func (r *referenceRepository) GetCity(ctx context.Context, id uint) (*models.City, error) {
	return getByID[models.City](ctx, r.db, "City", id)
}

func (r *referenceRepository) SaveCity(ctx context.Context, city *models.City) error {
	return save(ctx, r.db, "City", cache.CitiesKey, city, city.ID)
}

func (r *referenceRepository) ListTypeArticles(ctx context.Context) ([]models.TypeArticle, error) {
	return listCached[models.TypeArticle](ctx, r.db, cache.TypeArticlesKey)
}

func (r *referenceRepository) GetTypeArticle(ctx context.Context, id uint) (*models.TypeArticle, error) {
	return getByID[models.TypeArticle](ctx, r.db, "Article type", id)
}

func (r *referenceRepository) SaveTypeArticle(ctx context.Context, t *models.TypeArticle) error {
	return save(ctx, r.db, "Article type", cache.TypeArticlesKey, t, t.ID)
}

func (r *referenceRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	return listCached[models.Tag](ctx, r.db, cache.TagsKey)
}

func (r *referenceRepository) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	return getByID[models.Tag](ctx, r.db, "Tag", id)
}

func (r *referenceRepository) SaveTag(ctx context.Context, tag *models.Tag) error {
	return save(ctx, r.db, "Tag", cache.TagsKey, tag, tag.ID)
}

func (r *referenceRepository) SearchTags(ctx context.Context, query string, limit int) ([]models.Tag, error) {
	cond, arg := containsFold("tags.name", query)
	tags := []models.Tag{}
	err := r.db.WithContext(ctx).Where(cond, arg).Order("id").Limit(limit).Find(&tags).Error
	return tags, wrapInternal(err)
}

// TagsByIDs resolves ids to existing tags. Unknown ids are dropped.
func (r *referenceRepository) TagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tags).Error
	return tags, wrapInternal(err)
}

func (r *referenceRepository) ListTypeUsers(ctx context.Context) ([]models.TypeUser, error) {
	return listCached[models.TypeUser](ctx, r.db, cache.TypeUsersKey)
}

func (r *referenceRepository) GetTypeUser(ctx context.Context, id uint) (*models.TypeUser, error) {
	return getByID[models.TypeUser](ctx, r.db, "User type", id)
}

func (r *referenceRepository) TypeUserByName(ctx context.Context, name string) (*models.TypeUser, error) {
	return getByName[models.TypeUser](ctx, r.db, "User type", name)
}

func (r *referenceRepository) ListStateEvents(ctx context.Context) ([]models.StateEvent, error) {
	return listCached[models.StateEvent](ctx, r.db, cache.StateEventsKey)
}

func (r *referenceRepository) GetStateEvent(ctx context.Context, id uint) (*models.StateEvent, error) {
	return getByID[models.StateEvent](ctx, r.db, "Event state", id)
}

func (r *referenceRepository) StateEventByName(ctx context.Context, name string) (*models.StateEvent, error) {
	return getByName[models.StateEvent](ctx, r.db, "Event state", name)
}
