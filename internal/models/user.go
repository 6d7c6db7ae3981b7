// Package models contains data structures for the application's domain models.
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultIconKey is the blob key used until a user uploads an avatar.
const DefaultIconKey = "icon/account-icon-33.png"

// PasswordCost is the bcrypt cost used by SetPassword. Tests lower it.
var PasswordCost = bcrypt.DefaultCost

// TypeUser is the admin-managed user type lookup. Its name maps onto Role.
type TypeUser struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
}

// Role returns the closed role the type name stands for.
func (t TypeUser) Role() Role {
	return ParseRole(t.Name)
}

// User represents a member of the community.
type User struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	UUID         uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Email        string          `gorm:"uniqueIndex;not null" json:"email"`
	Phone        *string         `gorm:"uniqueIndex" json:"phone"`
	Name         string          `json:"name"`
	Surname      string          `json:"surname"`
	Patronymic   string          `json:"patronymic"`
	MoodEmoji    string          `json:"mood_emoji"`
	City         string          `json:"city"`
	BirthDate    *datatypes.Date `json:"birth_date"`
	TypeID       uint            `gorm:"not null;index" json:"type_id"`
	Type         TypeUser        `gorm:"foreignKey:TypeID" json:"type"`
	PasswordHash string          `gorm:"not null" json:"-"`
	Icon         string          `json:"icon"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate assigns the token and default icon.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.Icon == "" {
		u.Icon = DefaultIconKey
	}
	return nil
}

// SetPassword replaces the stored credential with a bcrypt hash of plain.
func (u *User) SetPassword(plain string) error {
	if plain == "" {
		return errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored credential.
func (u *User) CheckPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// Role returns the user's role derived from its type.
func (u *User) Role() Role {
	return u.Type.Role()
}
