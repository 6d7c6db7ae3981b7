package repository

import (
	"context"

	"nestling/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalendarRepository persists pregnancy calendars. Each user owns at most one.
type CalendarRepository interface {
	Create(ctx context.Context, cal *models.PregnancyCalendar) error
	GetByUUID(ctx context.Context, token uuid.UUID) (*models.PregnancyCalendar, error)
	GetByUserID(ctx context.Context, userID uint) (*models.PregnancyCalendar, error)
	SaveEntries(ctx context.Context, cal *models.PregnancyCalendar) error
}

type calendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) Create(ctx context.Context, cal *models.PregnancyCalendar) error {
	err := r.db.WithContext(ctx).Create(cal).Error
	if isUniqueViolation(err) {
		return models.NewConflictError("User already has a pregnancy calendar")
	}
	return wrapInternal(err)
}

func (r *calendarRepository) GetByUUID(ctx context.Context, token uuid.UUID) (*models.PregnancyCalendar, error) {
	var cal models.PregnancyCalendar
	if err := r.db.WithContext(ctx).Where("uuid = ?", token).First(&cal).Error; err != nil {
		return nil, translateError(err, "Calendar", token)
	}
	return &cal, nil
}

func (r *calendarRepository) GetByUserID(ctx context.Context, userID uint) (*models.PregnancyCalendar, error) {
	var cal models.PregnancyCalendar
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cal).Error; err != nil {
		return nil, translateError(err, "Calendar for user", userID)
	}
	return &cal, nil
}

// SaveEntries writes the entries column only. The window is never rewritten.
func (r *calendarRepository) SaveEntries(ctx context.Context, cal *models.PregnancyCalendar) error {
	res := r.db.WithContext(ctx).Model(cal).Update("entries", cal.Entries)
	if res.Error != nil {
		return wrapInternal(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Calendar", cal.UUID)
	}
	return nil
}
