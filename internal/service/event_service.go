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

type EventService struct {
	events repository.EventRepository
	users  repository.UserRepository
	refs   repository.ReferenceRepository
	views  viewMapper
	paging Paging
}

// EventInput is the payload for creating or updating an event. StateID is
// ignored on create.
type EventInput struct {
	DateConducting  time.Time `json:"date_conducting"`
	DateStop        time.Time `json:"date_stop"`
	CityID          uint      `json:"city_id"`
	Address         string    `json:"address"`
	Name            string    `json:"name"`
	DescriptionLite string    `json:"description_lite"`
	Description     string    `json:"description"`
	StateID         uint      `json:"state_id"`
	Tags            []uint    `json:"tags"`
}

func NewEventService(
	events repository.EventRepository,
	users repository.UserRepository,
	refs repository.ReferenceRepository,
	store storage.Store,
	paging Paging,
) *EventService {
	return &EventService{
		events: events,
		users:  users,
		refs:   refs,
		views:  viewMapper{store: store},
		paging: paging,
	}
}

func (s *EventService) validate(ctx context.Context, in EventInput) (*models.City, []models.Tag, error) {
	if err := validation.ValidateRequired("name", in.Name, maxTitleLen); err != nil {
		return nil, nil, models.NewValidationError(err.Error())
	}
	if in.DateConducting.IsZero() {
		return nil, nil, models.NewValidationError("date_conducting is required")
	}
	if in.DateStop.IsZero() {
		in.DateStop = in.DateConducting
	}
	if in.DateStop.Before(in.DateConducting) {
		return nil, nil, models.NewValidationError("date_stop must not be before date_conducting")
	}
	city, err := s.refs.GetCity(ctx, in.CityID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, nil, models.NewValidationError("Unknown city")
		}
		return nil, nil, err
	}
	tags, err := s.refs.TagsByIDs(ctx, in.Tags)
	if err != nil {
		return nil, nil, err
	}
	return city, tags, nil
}

func stopOrStart(in EventInput) time.Time {
	if in.DateStop.IsZero() {
		return in.DateConducting.UTC()
	}
	return in.DateStop.UTC()
}

// Create schedules an event in the opened state.
func (s *EventService) Create(ctx context.Context, id models.Identity, in EventInput) (*EventView, error) {
	if err := requireCapability(id, models.CapManageContent); err != nil {
		return nil, err
	}
	city, tags, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	state, err := s.refs.StateEventByName(ctx, models.StateOpened)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		ConductedAt:     in.DateConducting.UTC(),
		StoppedAt:       stopOrStart(in),
		CityID:          city.ID,
		Address:         in.Address,
		Name:            in.Name,
		DescriptionLite: in.DescriptionLite,
		Description:     in.Description,
		StateID:         state.ID,
		Tags:            tags,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	event.City = *city
	event.State = *state

	v := s.views.event(event)
	v.Registrants = []AuthorView{}
	return &v, nil
}

// Get returns the event with its registrants, served from cache when possible.
func (s *EventService) Get(ctx context.Context, token uuid.UUID) (*EventView, error) {
	var v EventView
	err := cache.Aside(ctx, cache.EventKey(token.String()), &v, cache.EventTTL, func() error {
		event, err := s.events.GetByUUID(ctx, token)
		if err != nil {
			return err
		}
		registrants, err := s.events.Registrants(ctx, event.ID)
		if err != nil {
			return err
		}
		v = s.views.event(event)
		v.Registrants = s.views.authors(registrants)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Page lists events by conducting date, latest first.
func (s *EventService) Page(ctx context.Context, page int, filter repository.EventFilter) (Page[EventView], error) {
	ctx, span := observability.StartSpan(ctx, "EventService.Page",
		attribute.Int("page", page),
		attribute.Int("tags", len(filter.Tags)),
	)
	req := s.paging.request(page)
	rows, total, err := s.events.Page(ctx, filter, req)
	observability.EndSpan(span, err)
	if err != nil {
		return Page[EventView]{}, err
	}
	return newPage(rows, total, req, s.views.event), nil
}

// PageRegistered lists the events the caller signed up for.
func (s *EventService) PageRegistered(ctx context.Context, id models.Identity, page int) (Page[EventView], error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return Page[EventView]{}, err
	}
	req := s.paging.request(page)
	rows, total, err := s.events.PageRegisteredBy(ctx, user.ID, req)
	if err != nil {
		return Page[EventView]{}, err
	}
	return newPage(rows, total, req, s.views.event), nil
}

func (s *EventService) Search(ctx context.Context, query string, count int) ([]EventView, error) {
	rows, err := s.events.Search(ctx, query, s.paging.searchCount(count))
	if err != nil {
		return nil, err
	}
	out := make([]EventView, 0, len(rows))
	for i := range rows {
		out = append(out, s.views.event(&rows[i]))
	}
	return out, nil
}

// States lists the event lifecycle states.
func (s *EventService) States(ctx context.Context) ([]models.StateEvent, error) {
	return s.refs.ListStateEvents(ctx)
}

// Update rewrites the event. A zero StateID keeps the current state.
func (s *EventService) Update(ctx context.Context, id models.Identity, token uuid.UUID, in EventInput) (*EventView, error) {
	if err := requireCapability(id, models.CapManageContent); err != nil {
		return nil, err
	}
	event, err := s.events.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	city, tags, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	if in.StateID != 0 && in.StateID != event.StateID {
		state, err := s.refs.GetStateEvent(ctx, in.StateID)
		if err != nil {
			if models.IsNotFound(err) {
				return nil, models.NewValidationError("Unknown event state")
			}
			return nil, err
		}
		event.StateID = state.ID
		event.State = *state
	}

	event.ConductedAt = in.DateConducting.UTC()
	event.StoppedAt = stopOrStart(in)
	event.CityID = city.ID
	event.City = *city
	event.Address = in.Address
	event.Name = in.Name
	event.DescriptionLite = in.DescriptionLite
	event.Description = in.Description
	if err := s.events.Update(ctx, event, tags); err != nil {
		return nil, err
	}
	cache.InvalidateEvent(ctx, token.String())

	registrants, err := s.events.Registrants(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	v := s.views.event(event)
	v.Registrants = s.views.authors(registrants)
	return &v, nil
}

// Delete removes the event with its registrations and tag links.
func (s *EventService) Delete(ctx context.Context, id models.Identity, token uuid.UUID) error {
	if err := requireCapability(id, models.CapManageContent); err != nil {
		return err
	}
	event, err := s.events.GetByUUID(ctx, token)
	if err != nil {
		return err
	}
	if err := s.events.Delete(ctx, event); err != nil {
		return err
	}
	cache.InvalidateEvent(ctx, token.String())
	return nil
}

// Register signs the caller up. Registering twice is a conflict.
func (s *EventService) Register(ctx context.Context, id models.Identity, token uuid.UUID) (*MembershipView, error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.events.AddRegistration(ctx, user.ID, event.ID); err != nil {
		return nil, err
	}
	cache.InvalidateEvent(ctx, token.String())
	return s.registrationInfo(ctx, event.ID, user.ID)
}

// Unregister drops the caller's registration if present.
func (s *EventService) Unregister(ctx context.Context, id models.Identity, token uuid.UUID) (*MembershipView, error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.events.RemoveRegistration(ctx, user.ID, event.ID); err != nil {
		return nil, err
	}
	cache.InvalidateEvent(ctx, token.String())
	return s.registrationInfo(ctx, event.ID, user.ID)
}

// Registrations reports the registration count. An anonymous caller is never a member.
func (s *EventService) Registrations(ctx context.Context, id *models.Identity, token uuid.UUID) (*MembershipView, error) {
	event, err := s.events.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	var userID uint
	if id != nil {
		if user, err := s.users.GetByUUID(ctx, id.UserUUID); err == nil {
			userID = user.ID
		}
	}
	return s.registrationInfo(ctx, event.ID, userID)
}

// RemoveRegistrant drops another user's registration and returns who is left.
func (s *EventService) RemoveRegistrant(ctx context.Context, id models.Identity, token, userToken uuid.UUID) ([]AuthorView, error) {
	if err := requireCapability(id, models.CapManageContent); err != nil {
		return nil, err
	}
	event, err := s.events.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByUUID(ctx, userToken)
	if err != nil {
		return nil, err
	}
	if err := s.events.RemoveRegistration(ctx, user.ID, event.ID); err != nil {
		return nil, err
	}
	cache.InvalidateEvent(ctx, token.String())

	registrants, err := s.events.Registrants(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return s.views.authors(registrants), nil
}

func (s *EventService) registrationInfo(ctx context.Context, eventID, userID uint) (*MembershipView, error) {
	count, member, err := s.events.RegistrationInfo(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	return &MembershipView{Count: count, Member: member}, nil
}
