package models

// TypeArticle categorises articles.
type TypeArticle struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
}

// Tag labels articles and events.
type Tag struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
}

// City is where events take place.
type City struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"not null" json:"name"`
	Region string `json:"region"`
}

// StateEvent is the lifecycle state of an event.
type StateEvent struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
}

// Built-in event states.
const (
	StateOpened = "opened"
	StateClosed = "closed"
	StatePassed = "passed"
)
