package repository

import (
	"context"

	"nestling/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserSearch holds the whitespace-separated parts of a name search.
// Empty parts match everything.
type UserSearch struct {
	Surname    string
	Name       string
	Patronymic string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUUID(ctx context.Context, token uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	UpdateIcon(ctx context.Context, id uint, key string) error
	Delete(ctx context.Context, id uint) error
	Page(ctx context.Context, page PageRequest) ([]models.User, int64, error)
	Search(ctx context.Context, search UserSearch, count int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

const userOrder = "users.surname, users.name, users.id"

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if isUniqueViolation(err) {
		return models.NewConflictError("User with this email or phone already exists")
	}
	return wrapInternal(err)
}

func (r *userRepository) first(ctx context.Context, id any, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Type").Where(query, args...).First(&user).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, id, "id = ?", id)
}

func (r *userRepository) GetByUUID(ctx context.Context, token uuid.UUID) (*models.User, error) {
	return r.first(ctx, token, "uuid = ?", token)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, email, "email = ?", email)
}

// Update saves profile columns. The credential and icon have their own setters.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Select("Email", "Phone", "Name", "Surname", "Patronymic", "MoodEmoji", "City", "BirthDate", "TypeID").
		Updates(user).Error
	if isUniqueViolation(err) {
		return models.NewConflictError("User with this email or phone already exists")
	}
	return wrapInternal(err)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

func (r *userRepository) UpdateIcon(ctx context.Context, id uint, key string) error {
	return r.updateColumn(ctx, id, "icon", key)
}

func (r *userRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return wrapInternal(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// Delete soft-deletes the user.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return wrapInternal(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) Page(ctx context.Context, page PageRequest) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, wrapInternal(err)
	}

	users := []models.User{}
	err := r.db.WithContext(ctx).
		Preload("Type").
		Order(userOrder).
		Scopes(paginate(page)).
		Find(&users).Error
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return users, total, nil
}

func (r *userRepository) Search(ctx context.Context, search UserSearch, count int) ([]models.User, error) {
	q := r.db.WithContext(ctx).Preload("Type")
	parts := []struct{ column, term string }{
		{"users.surname", search.Surname},
		{"users.name", search.Name},
		{"users.patronymic", search.Patronymic},
	}
	for _, p := range parts {
		if p.term == "" {
			continue
		}
		cond, arg := containsFold(p.column, p.term)
		q = q.Where(cond, arg)
	}

	users := []models.User{}
	err := q.Order(userOrder).Limit(count).Find(&users).Error
	return users, wrapInternal(err)
}
