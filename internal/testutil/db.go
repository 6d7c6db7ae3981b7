// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"nestling/internal/database"
	"nestling/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a fresh in-memory database with every table migrated.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// NewMockDB wraps sqlmock in the gorm postgres dialect.
func NewMockDB(t testing.TB) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return db, mock
}

// Reference holds the lookup rows created by SeedReference.
type Reference struct {
	AdminType models.TypeUser
	UserType  models.TypeUser
	News      models.TypeArticle
	Guide     models.TypeArticle
	Tags      []models.Tag
	Moscow    models.City
	Astrakhan models.City
	Opened    models.StateEvent
	Closed    models.StateEvent
	Passed    models.StateEvent
}

// SeedReference inserts a minimal set of lookup rows.
func SeedReference(t testing.TB, db *gorm.DB) Reference {
	t.Helper()
	ref := Reference{
		AdminType: models.TypeUser{Name: string(models.RoleAdmin)},
		UserType:  models.TypeUser{Name: string(models.RoleUser)},
		News:      models.TypeArticle{Name: "news"},
		Guide:     models.TypeArticle{Name: "guide"},
		Tags:      []models.Tag{{Name: "health"}, {Name: "food"}, {Name: "sport"}},
		Moscow:    models.City{Name: "Moscow", Region: "Moscow"},
		Astrakhan: models.City{Name: "Astrakhan", Region: "Astrakhan Oblast"},
		Opened:    models.StateEvent{Name: models.StateOpened},
		Closed:    models.StateEvent{Name: models.StateClosed},
		Passed:    models.StateEvent{Name: models.StatePassed},
	}
	for _, row := range []any{
		&ref.AdminType, &ref.UserType, &ref.News, &ref.Guide, &ref.Tags,
		&ref.Moscow, &ref.Astrakhan, &ref.Opened, &ref.Closed, &ref.Passed,
	} {
		require.NoError(t, db.Create(row).Error)
	}
	return ref
}

// CreateUser inserts a user of the given type with password "Passw0rd!".
func CreateUser(t testing.TB, db *gorm.DB, typeID uint, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Anna", Surname: "Ivanova", TypeID: typeID}
	require.NoError(t, u.SetPassword("Passw0rd!"))
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Preload("Type").First(u, u.ID).Error)
	return u
}

// CreateArticles inserts n articles published one minute apart, oldest first.
func CreateArticles(t testing.TB, db *gorm.DB, authorID, typeID uint, n int, tags ...models.Tag) []models.Article {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.Article, 0, n)
	for i := 0; i < n; i++ {
		a := models.Article{
			AuthorID:    authorID,
			TypeID:      typeID,
			PublishedAt: base.Add(time.Duration(i) * time.Minute),
			Name:        fmt.Sprintf("Article %02d", i),
			Tags:        tags,
		}
		require.NoError(t, db.Create(&a).Error)
		out = append(out, a)
	}
	return out
}

// CreateEvents inserts n events held one day apart, earliest first.
func CreateEvents(t testing.TB, db *gorm.DB, cityID, stateID uint, n int, tags ...models.Tag) []models.Event {
	t.Helper()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]models.Event, 0, n)
	for i := 0; i < n; i++ {
		e := models.Event{
			ConductedAt: base.AddDate(0, 0, i),
			StoppedAt:   base.AddDate(0, 0, i).Add(2 * time.Hour),
			CityID:      cityID,
			StateID:     stateID,
			Name:        fmt.Sprintf("Event %02d", i),
			Tags:        tags,
		}
		require.NoError(t, db.Create(&e).Error)
		out = append(out, e)
	}
	return out
}
