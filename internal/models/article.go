package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article is a published piece of content.
type Article struct {
	ID              uint        `gorm:"primaryKey" json:"-"`
	UUID            uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	AuthorID        uint        `gorm:"not null;index" json:"-"`
	Author          User        `gorm:"foreignKey:AuthorID" json:"author"`
	PublishedAt     time.Time   `gorm:"not null;index" json:"published_at"`
	TypeID          uint        `gorm:"not null;index" json:"-"`
	Type            TypeArticle `gorm:"foreignKey:TypeID" json:"type"`
	Name            string      `gorm:"not null" json:"name"`
	DescriptionLite string      `json:"description_lite"`
	Description     string      `gorm:"type:text" json:"description"`
	Tags            []Tag       `gorm:"many2many:tag_articles;" json:"tags"`
	CreatedAt       time.Time   `json:"-"`
	UpdatedAt       time.Time   `json:"-"`
}

func (a *Article) BeforeCreate(_ *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	return nil
}

// Comment is a user's reply to an article.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	User        User      `gorm:"foreignKey:UserID" json:"user"`
	ArticleID   uint      `gorm:"not null;index" json:"-"`
	PublishedAt time.Time `gorm:"not null" json:"published_at"`
	Content     string    `gorm:"type:text;not null" json:"content"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.PublishedAt.IsZero() {
		c.PublishedAt = time.Now().UTC()
	}
	return nil
}

// Like is the association row between a user and an article they liked.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"`
	ArticleID uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}
