package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a scheduled gathering in a city.
type Event struct {
	ID              uint       `gorm:"primaryKey" json:"-"`
	UUID            uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	ConductedAt     time.Time  `gorm:"not null;index" json:"date_conducting"`
	StoppedAt       time.Time  `gorm:"not null" json:"date_stop"`
	CityID          uint       `gorm:"not null;index" json:"-"`
	City            City       `gorm:"foreignKey:CityID" json:"city"`
	Address         string     `json:"address"`
	Name            string     `gorm:"not null" json:"name"`
	DescriptionLite string     `json:"description_lite"`
	Description     string     `gorm:"type:text" json:"description"`
	StateID         uint       `gorm:"not null;index" json:"-"`
	State           StateEvent `gorm:"foreignKey:StateID" json:"state"`
	Tags            []Tag      `gorm:"many2many:tag_events;" json:"tags"`
	CreatedAt       time.Time  `json:"-"`
	UpdatedAt       time.Time  `json:"-"`
}

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	return nil
}

// Registration is the association row between a user and an event they signed up for.
type Registration struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"`
	EventID   uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}
