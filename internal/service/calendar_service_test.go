package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nestling/internal/models"
	"nestling/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalendar(t *testing.T, h *harness, start string) (*CalendarView, uuid.UUID) {
	t.Helper()
	v, err := h.calendars.Create(context.Background(), h.userID, CalendarInput{Name: "Baby", DateStart: &start})
	require.NoError(t, err)
	return v, uuid.MustParse(v.UUID)
}

func TestCalendarService_CreateComputesWindow(t *testing.T) {
	h := newHarness(t)
	v, _ := newCalendar(t, h, "2025-01-01")

	assert.Equal(t, "2025-01-01", v.DateStart)
	assert.Equal(t, "2025-10-08", v.DateDue)
	assert.Equal(t, "2024-11-02", v.WindowStart)
	assert.Equal(t, "2025-11-07", v.WindowEnd)
	assert.Empty(t, v.Dates)

	_, err := h.calendars.Create(context.Background(), h.userID, CalendarInput{Name: "Again"})
	assertCode(t, err, models.ErrCodeConflict)

	mine, err := h.calendars.Mine(context.Background(), h.userID)
	require.NoError(t, err)
	assert.Equal(t, v.UUID, mine.UUID)

	_, err = h.calendars.Mine(context.Background(), h.adminID)
	assertCode(t, err, models.ErrCodeNotFound)
}

func TestCalendarService_CreateDefaultsToToday(t *testing.T) {
	h := newHarness(t)
	h.calendars.now = func() time.Time { return time.Date(2026, 2, 3, 22, 15, 0, 0, time.UTC) }

	v, err := h.calendars.Create(context.Background(), h.userID, CalendarInput{Name: "Baby"})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-03", v.DateStart)
}

func TestCalendarService_AddEntryOverwrites(t *testing.T) {
	h := newHarness(t)
	_, token := newCalendar(t, h, "2025-01-01")
	ctx := context.Background()

	first, err := h.calendars.AddEntry(ctx, h.userID, token,
		EntryInput{Date: "2025-03-04T09:30:00Z", Name: "Scan", Description: "first"},
		&ImageUpload{Content: testutil.TinyPNG(t, 40, 30)})
	require.NoError(t, err)
	require.Equal(t, []string{"2025-03-04"}, first.Dates)
	oldImage := first.Calendar["2025-03-04"].Image
	require.True(t, strings.HasPrefix(oldImage, testBaseURL+"/calendar/"+token.String()+"/"))

	second, err := h.calendars.AddEntry(ctx, h.userID, token,
		EntryInput{Date: "2025-03-04", Name: "Scan", Description: "second"}, nil)
	require.NoError(t, err)
	require.Len(t, second.Calendar, 1)
	entry := second.Calendar["2025-03-04"]
	assert.Equal(t, "second", entry.Description)
	assert.Empty(t, entry.Image)
	assert.Empty(t, h.store.Keys())

	mine, err := h.calendars.Mine(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, second.Calendar, mine.Calendar)
}

func TestCalendarService_EntryDateMustBeInsideWindow(t *testing.T) {
	h := newHarness(t)
	_, token := newCalendar(t, h, "2025-01-01")
	ctx := context.Background()

	for _, date := range []string{"2024-11-01", "2025-11-08", "tomorrow"} {
		_, err := h.calendars.AddEntry(ctx, h.userID, token, EntryInput{Date: date, Name: "x"}, nil)
		assertCode(t, err, models.ErrCodeValidation)
	}
	for _, date := range []string{"2024-11-02", "2025-11-07"} {
		_, err := h.calendars.AddEntry(ctx, h.userID, token, EntryInput{Date: date, Name: "edge"}, nil)
		require.NoError(t, err, date)
	}
}

func TestCalendarService_UpdateAndDeleteEntry(t *testing.T) {
	h := newHarness(t)
	_, token := newCalendar(t, h, "2025-01-01")
	ctx := context.Background()

	_, err := h.calendars.UpdateEntry(ctx, h.userID, token, "2025-02-02", EntryInput{Name: "x"}, nil)
	assertCode(t, err, models.ErrCodeNotFound)

	_, err = h.calendars.AddEntry(ctx, h.userID, token, EntryInput{Date: "2025-02-02", Name: "Kick"},
		&ImageUpload{Content: testutil.TinyPNG(t, 8, 8)})
	require.NoError(t, err)
	require.Len(t, h.store.Keys(), 1)
	before := h.store.Keys()[0]

	renamed, err := h.calendars.UpdateEntry(ctx, h.userID, token, "2025-02-02", EntryInput{Name: "First kick"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "First kick", renamed.Calendar["2025-02-02"].Name)
	assert.Equal(t, testBaseURL+"/"+before, renamed.Calendar["2025-02-02"].Image)

	replaced, err := h.calendars.UpdateEntry(ctx, h.userID, token, "2025-02-02", EntryInput{Name: "First kick"},
		&ImageUpload{Content: testutil.TinyPNG(t, 8, 8)})
	require.NoError(t, err)
	require.Len(t, h.store.Keys(), 1)
	assert.NotEqual(t, before, h.store.Keys()[0])
	assert.Equal(t, testBaseURL+"/"+h.store.Keys()[0], replaced.Calendar["2025-02-02"].Image)

	_, err = h.calendars.DeleteEntry(ctx, h.userID, token, "2025-02-03")
	assertCode(t, err, models.ErrCodeNotFound)

	cleared, err := h.calendars.DeleteEntry(ctx, h.userID, token, "2025-02-02")
	require.NoError(t, err)
	assert.Empty(t, cleared.Calendar)
	assert.Empty(t, h.store.Keys())
}

func TestCalendarService_OnlyOwnerMutates(t *testing.T) {
	h := newHarness(t)
	_, token := newCalendar(t, h, "2025-01-01")
	ctx := context.Background()

	_, err := h.calendars.AddEntry(ctx, h.adminID, token, EntryInput{Date: "2025-02-02", Name: "x"}, nil)
	assertCode(t, err, models.ErrCodeForbidden)
	_, err = h.calendars.DeleteEntry(ctx, h.adminID, token, "2025-02-02")
	assertCode(t, err, models.ErrCodeForbidden)
}

func TestCalendarService_FailedUploadLeavesEntriesAlone(t *testing.T) {
	h := newHarness(t)
	_, token := newCalendar(t, h, "2025-01-01")
	h.store.FailUploads = errors.New("bucket offline")

	_, err := h.calendars.AddEntry(context.Background(), h.userID, token,
		EntryInput{Date: "2025-02-02", Name: "x"}, &ImageUpload{Content: testutil.TinyPNG(t, 8, 8)})
	assertCode(t, err, models.ErrCodeInternal)

	h.store.FailUploads = nil
	mine, err := h.calendars.Mine(context.Background(), h.userID)
	require.NoError(t, err)
	assert.Empty(t, mine.Calendar)
}
