package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nestling/internal/models"
	"nestling/internal/repository"
	"nestling/internal/storage"
	"nestling/internal/validation"

	"github.com/google/uuid"
)

// CalendarService manages pregnancy calendars. Each user owns at most one and
// only the owner may change it.
type CalendarService struct {
	calendars repository.CalendarRepository
	users     repository.UserRepository
	store     storage.Store
	media     *MediaService
	views     viewMapper
	now       func() time.Time
}

type CalendarInput struct {
	Name      string  `json:"name"`
	DateStart *string `json:"date_start"`
}

type EntryInput struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewCalendarService(
	calendars repository.CalendarRepository,
	users repository.UserRepository,
	store storage.Store,
	media *MediaService,
) *CalendarService {
	return &CalendarService{
		calendars: calendars,
		users:     users,
		store:     store,
		media:     media,
		views:     viewMapper{store: store},
		now:       time.Now,
	}
}

// Create opens the caller's calendar. The start date defaults to today.
func (s *CalendarService) Create(ctx context.Context, id models.Identity, in CalendarInput) (*CalendarView, error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateRequired("name", name, maxTitleLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	start := s.now().UTC()
	if in.DateStart != nil && strings.TrimSpace(*in.DateStart) != "" {
		canonical, err := models.CanonicalDate(*in.DateStart)
		if err != nil {
			return nil, models.NewValidationError("Invalid date_start")
		}
		start, _ = time.Parse(models.CalendarDateLayout, canonical)
	}

	cal := models.NewPregnancyCalendar(user.ID, name, start)
	if err := s.calendars.Create(ctx, cal); err != nil {
		return nil, err
	}
	v := s.views.calendar(cal)
	return &v, nil
}

// Mine returns the caller's calendar.
func (s *CalendarService) Mine(ctx context.Context, id models.Identity) (*CalendarView, error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendars.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	v := s.views.calendar(cal)
	return &v, nil
}

func (s *CalendarService) owned(ctx context.Context, id models.Identity, token uuid.UUID) (*models.PregnancyCalendar, error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendars.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	if cal.UserID != user.ID {
		return nil, models.NewForbiddenError("You can only change your own calendar")
	}
	return cal, nil
}

// entryDate canonicalises raw and checks it falls inside the calendar window.
func entryDate(cal *models.PregnancyCalendar, raw string) (string, error) {
	date, err := models.CanonicalDate(raw)
	if err != nil {
		return "", models.NewValidationError("Invalid date")
	}
	from := formatDate(time.Time(cal.WindowStart))
	to := formatDate(time.Time(cal.WindowEnd))
	if date < from || date > to {
		return "", models.NewValidationError(fmt.Sprintf("Date must be between %s and %s", from, to))
	}
	return date, nil
}

func (s *CalendarService) uploadImage(ctx context.Context, cal *models.PregnancyCalendar, upload *ImageUpload) (string, error) {
	if upload == nil || len(upload.Content) == 0 {
		return "", nil
	}
	encoded, err := s.media.Normalize(*upload, CalendarImageMaxSide)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("calendar/%s/%s.webp", cal.UUID, uuid.NewString())
	if err := s.store.Upload(ctx, key, encoded, WebPContentType); err != nil {
		return "", models.NewInternalError(err)
	}
	return key, nil
}

// save persists the entries. On failure the freshly uploaded image is dropped;
// on success the superseded one is.
func (s *CalendarService) save(ctx context.Context, cal *models.PregnancyCalendar, uploaded, superseded string) (*CalendarView, error) {
	if err := s.calendars.SaveEntries(ctx, cal); err != nil {
		dropBlob(ctx, s.store, uploaded)
		return nil, err
	}
	if superseded != uploaded {
		dropBlob(ctx, s.store, superseded)
	}
	v := s.views.calendar(cal)
	return &v, nil
}

// AddEntry stores an entry under its date, replacing any entry already there.
func (s *CalendarService) AddEntry(ctx context.Context, id models.Identity, token uuid.UUID, in EntryInput, image *ImageUpload) (*CalendarView, error) {
	cal, err := s.owned(ctx, id, token)
	if err != nil {
		return nil, err
	}
	date, err := entryDate(cal, in.Date)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateRequired("name", name, maxTitleLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	key, err := s.uploadImage(ctx, cal, image)
	if err != nil {
		return nil, err
	}

	previous, replaced := cal.PutEntry(models.CalendarEntry{
		Date:        date,
		Name:        name,
		Description: in.Description,
		Image:       key,
	})
	var superseded string
	if replaced {
		superseded = previous.Image
	}
	return s.save(ctx, cal, key, superseded)
}

// UpdateEntry edits an existing entry. A new image replaces the old one;
// without one the old image is kept.
func (s *CalendarService) UpdateEntry(ctx context.Context, id models.Identity, token uuid.UUID, rawDate string, in EntryInput, image *ImageUpload) (*CalendarView, error) {
	cal, err := s.owned(ctx, id, token)
	if err != nil {
		return nil, err
	}
	date, err := models.CanonicalDate(rawDate)
	if err != nil {
		return nil, models.NewValidationError("Invalid date")
	}
	entry, ok := cal.Entry(date)
	if !ok {
		return nil, models.NewNotFoundError("Calendar entry", date)
	}
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateRequired("name", name, maxTitleLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	key, err := s.uploadImage(ctx, cal, image)
	if err != nil {
		return nil, err
	}

	superseded := ""
	if key != "" {
		superseded = entry.Image
		entry.Image = key
	}
	entry.Name = name
	entry.Description = in.Description
	cal.PutEntry(entry)
	return s.save(ctx, cal, key, superseded)
}

// DeleteEntry removes the entry and its image.
func (s *CalendarService) DeleteEntry(ctx context.Context, id models.Identity, token uuid.UUID, rawDate string) (*CalendarView, error) {
	cal, err := s.owned(ctx, id, token)
	if err != nil {
		return nil, err
	}
	date, err := models.CanonicalDate(rawDate)
	if err != nil {
		return nil, models.NewValidationError("Invalid date")
	}
	removed, ok := cal.RemoveEntry(date)
	if !ok {
		return nil, models.NewNotFoundError("Calendar entry", date)
	}
	return s.save(ctx, cal, "", removed.Image)
}
