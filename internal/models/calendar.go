package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CalendarDateLayout is the canonical layout of calendar entry keys.
const CalendarDateLayout = "2006-01-02"

// Window constants, in days.
const (
	GestationDays  = 280
	WindowLeadDays = 60
	WindowTailDays = 30
)

// CalendarEntry is one dated note in a pregnancy calendar. Image holds a blob key.
type CalendarEntry struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// CalendarEntries maps canonical YYYY-MM-DD keys to entries.
type CalendarEntries map[string]CalendarEntry

// PregnancyCalendar is a user's dated journal. The window is fixed at creation.
type PregnancyCalendar struct {
	ID          uint                                `gorm:"primaryKey" json:"-"`
	UUID        uuid.UUID                           `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	UserID      uint                                `gorm:"uniqueIndex;not null" json:"-"`
	Name        string                              `gorm:"not null" json:"name"`
	StartDate   datatypes.Date                      `gorm:"not null" json:"date_start"`
	DueDate     datatypes.Date                      `gorm:"not null" json:"date_due"`
	WindowStart datatypes.Date                      `gorm:"not null" json:"window_start"`
	WindowEnd   datatypes.Date                      `gorm:"not null" json:"window_end"`
	Entries     datatypes.JSONType[CalendarEntries] `json:"calendar"`
	CreatedAt   time.Time                           `json:"-"`
	UpdatedAt   time.Time                           `json:"-"`
}

func (PregnancyCalendar) TableName() string {
	return "pregnancy_calendars"
}

func (c *PregnancyCalendar) BeforeCreate(_ *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// NewPregnancyCalendar builds a calendar whose window runs from start-60d to
// start+280d+30d.
func NewPregnancyCalendar(userID uint, name string, start time.Time) *PregnancyCalendar {
	start = truncateDay(start)
	due := start.AddDate(0, 0, GestationDays)
	return &PregnancyCalendar{
		UserID:      userID,
		Name:        name,
		StartDate:   datatypes.Date(start),
		DueDate:     datatypes.Date(due),
		WindowStart: datatypes.Date(start.AddDate(0, 0, -WindowLeadDays)),
		WindowEnd:   datatypes.Date(due.AddDate(0, 0, WindowTailDays)),
		Entries:     datatypes.NewJSONType(CalendarEntries{}),
	}
}

// EntryMap returns a copy of the entries.
func (c *PregnancyCalendar) EntryMap() CalendarEntries {
	out := CalendarEntries{}
	for k, v := range c.Entries.Data() {
		out[k] = v
	}
	return out
}

// Entry returns the entry stored under date.
func (c *PregnancyCalendar) Entry(date string) (CalendarEntry, bool) {
	e, ok := c.Entries.Data()[date]
	return e, ok
}

// PutEntry stores e under its date, replacing whatever was there.
func (c *PregnancyCalendar) PutEntry(e CalendarEntry) (previous CalendarEntry, replaced bool) {
	entries := c.EntryMap()
	previous, replaced = entries[e.Date]
	entries[e.Date] = e
	c.Entries = datatypes.NewJSONType(entries)
	return previous, replaced
}

// RemoveEntry deletes the entry stored under date.
func (c *PregnancyCalendar) RemoveEntry(date string) (CalendarEntry, bool) {
	entries := c.EntryMap()
	removed, ok := entries[date]
	if !ok {
		return CalendarEntry{}, false
	}
	delete(entries, date)
	c.Entries = datatypes.NewJSONType(entries)
	return removed, true
}

// CanonicalDate normalises a date or RFC 3339 timestamp to YYYY-MM-DD.
func CanonicalDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(CalendarDateLayout, raw); err == nil {
		return t.Format(CalendarDateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(CalendarDateLayout), nil
	}
	return "", fmt.Errorf("invalid date %q", raw)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
