package repository

import (
	"context"

	"nestling/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventFilter narrows an event listing. Zero values mean no filter.
type EventFilter struct {
	Tags   []uint
	CityID uint
}

// EventRepository defines persistence operations for events and their registrations.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByUUID(ctx context.Context, token uuid.UUID) (*models.Event, error)
	Page(ctx context.Context, filter EventFilter, page PageRequest) ([]models.Event, int64, error)
	PageRegisteredBy(ctx context.Context, userID uint, page PageRequest) ([]models.Event, int64, error)
	Search(ctx context.Context, query string, count int) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event, tags []models.Tag) error
	Delete(ctx context.Context, event *models.Event) error

	AddRegistration(ctx context.Context, userID, eventID uint) error
	RemoveRegistration(ctx context.Context, userID, eventID uint) error
	RegistrationInfo(ctx context.Context, eventID, userID uint) (int64, bool, error)
	Registrants(ctx context.Context, eventID uint) ([]models.User, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventOrder = "events.conducted_at DESC, events.id DESC"

func (r *eventRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("City").
		Preload("State").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.id") })
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return translateError(r.db.WithContext(ctx).Create(event).Error, "Event", event.UUID)
}

func (r *eventRepository) GetByUUID(ctx context.Context, token uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.withDetails(r.db.WithContext(ctx)).Where("uuid = ?", token).First(&event).Error; err != nil {
		return nil, translateError(err, "Event", token)
	}
	return &event, nil
}

func (r *eventRepository) filtered(ctx context.Context, filter EventFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Event{}).
		Scopes(taggedWith(r.db.WithContext(ctx), "events.id", "tag_events", "event_id", filter.Tags))
	if filter.CityID != 0 {
		q = q.Where("events.city_id = ?", filter.CityID)
	}
	return q
}

func (r *eventRepository) Page(ctx context.Context, filter EventFilter, page PageRequest) ([]models.Event, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, wrapInternal(err)
	}

	events := []models.Event{}
	err := r.withDetails(r.filtered(ctx, filter)).
		Order(eventOrder).
		Scopes(paginate(page)).
		Find(&events).Error
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return events, total, nil
}

func (r *eventRepository) registeredBy(ctx context.Context, userID uint) *gorm.DB {
	sub := r.db.WithContext(ctx).Model(&models.Registration{}).Select("event_id").Where("user_id = ?", userID)
	return r.db.WithContext(ctx).Model(&models.Event{}).Where("events.id IN (?)", sub)
}

func (r *eventRepository) PageRegisteredBy(ctx context.Context, userID uint, page PageRequest) ([]models.Event, int64, error) {
	var total int64
	if err := r.registeredBy(ctx, userID).Count(&total).Error; err != nil {
		return nil, 0, wrapInternal(err)
	}

	events := []models.Event{}
	err := r.withDetails(r.registeredBy(ctx, userID)).
		Order(eventOrder).
		Scopes(paginate(page)).
		Find(&events).Error
	if err != nil {
		return nil, 0, wrapInternal(err)
	}
	return events, total, nil
}

func (r *eventRepository) Search(ctx context.Context, query string, count int) ([]models.Event, error) {
	cond, arg := containsFold("events.name", query)
	events := []models.Event{}
	err := r.withDetails(r.db.WithContext(ctx)).
		Where(cond, arg).
		Order(eventOrder).
		Limit(count).
		Find(&events).Error
	return events, wrapInternal(err)
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event, tags []models.Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(event).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, event, tags); err != nil {
			return err
		}
		event.Tags = tags
		return nil
	})
	return translateError(err, "Event", event.UUID)
}

// Delete removes the event together with its tag links and registrations.
func (r *eventRepository) Delete(ctx context.Context, event *models.Event) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Registration{}).Error; err != nil {
			return err
		}
		if err := tx.Model(event).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, event.ID).Error
	})
	return translateError(err, "Event", event.UUID)
}

func (r *eventRepository) AddRegistration(ctx context.Context, userID, eventID uint) error {
	err := r.db.WithContext(ctx).Create(&models.Registration{UserID: userID, EventID: eventID}).Error
	if isUniqueViolation(err) {
		return models.NewConflictError("Already registered for this event")
	}
	return wrapInternal(err)
}

func (r *eventRepository) RemoveRegistration(ctx context.Context, userID, eventID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&models.Registration{}).Error
	return wrapInternal(err)
}

// RegistrationInfo counts registrations of live users, matching Registrants.
func (r *eventRepository) RegistrationInfo(ctx context.Context, eventID, userID uint) (int64, bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Registration{}).
		Joins("JOIN users ON users.id = registrations.user_id AND users.deleted_at IS NULL").
		Where("registrations.event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, false, wrapInternal(err)
	}
	if userID == 0 || count == 0 {
		return count, false, nil
	}

	var mine int64
	err = r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&mine).Error
	if err != nil {
		return 0, false, wrapInternal(err)
	}
	return count, mine > 0, nil
}

// Registrants lists the users registered for the event in sign-up order.
func (r *eventRepository) Registrants(ctx context.Context, eventID uint) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Preload("Type").
		Select("users.*").
		Joins("JOIN registrations ON registrations.user_id = users.id").
		Where("registrations.event_id = ?", eventID).
		Order("registrations.created_at, users.id").
		Find(&users).Error
	return users, wrapInternal(err)
}
