package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"nestling/internal/middleware"

	"gorm.io/gorm"
)

// MigrationStore tracks which migrations have been applied.
type MigrationStore interface {
	GetAppliedMigrations(ctx context.Context) ([]int, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

// MigrationLog is one applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

type migrationStore struct {
	db *gorm.DB
}

// NewMigrationStore creates a new MigrationStore instance.
func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &migrationStore{db: db}
}

func (s *migrationStore) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	var versions []int
	err := s.db.WithContext(ctx).Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error
	if err != nil {
		if isMissingTableError(err) {
			return []int{}, nil
		}
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	return versions, nil
}

// Apply runs the up script and records it in one transaction.
func (s *migrationStore) Apply(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.String(), err)
		}
		if err := tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.String(), err)
		}
		return nil
	})
}

// Revert runs the down script and forgets the version in one transaction.
func (s *migrationStore) Revert(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", m.String(), err)
		}
		return tx.Where("version = ?", m.Version).Delete(&MigrationLog{}).Error
	})
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// RunMigrations applies every registered migration not yet recorded in migration_logs.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("failed to ensure migration logs table: %w", err)
	}

	store := NewMigrationStore(db)
	applied, err := store.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if err := checkKnownVersions(applied, migrations); err != nil {
		return err
	}

	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}
		middleware.Logger.Info("Applying migration", slog.Int("version", m.Version), slog.String("name", m.Name))
		if err := store.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// checkKnownVersions fails when the database has versions this build does not ship.
func checkKnownVersions(applied []int, registered []Migration) error {
	known := make(map[int]struct{}, len(registered))
	for _, m := range registered {
		known[m.Version] = struct{}{}
	}

	var unknown []int
	for _, v := range applied {
		if _, ok := known[v]; !ok {
			unknown = append(unknown, v)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Ints(unknown)
	parts := make([]string, 0, len(unknown))
	for _, v := range unknown {
		parts = append(parts, fmt.Sprintf("%06d", v))
	}
	return fmt.Errorf("migration_logs contains unknown versions not present in code: %s", strings.Join(parts, ", "))
}

// RollbackMigration reverts one applied migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	store := NewMigrationStore(db)
	applied, err := store.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if !containsVersion(applied, version) {
		return fmt.Errorf("migration %d has not been applied", version)
	}

	middleware.Logger.Info("Rolling back migration", slog.Int("version", version), slog.String("name", m.Name))
	return store.Revert(ctx, *m)
}

func containsVersion(versions []int, v int) bool {
	for _, x := range versions {
		if x == v {
			return true
		}
	}
	return false
}
