// Package bootstrap prepares the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nestling/internal/cache"
	"nestling/internal/config"
	"nestling/internal/database"
	"nestling/internal/middleware"
	"nestling/internal/models"
	"nestling/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedReference bool
}

// InitRuntime connects to the database and Redis, applies the schema policy
// and optionally seeds reference data. The Redis client is nil when Redis is
// unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedReference {
		if err := seed.Reference(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed reference data: %w", err)
		}
	}

	if err := EnsureAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	return db, r, nil
}

// EnsureAdmin creates the configured administrator when it does not exist yet
// and promotes it to the admin type when it does. It does nothing unless both
// ADMIN_EMAIL and ADMIN_PASSWORD are set. An existing password is never reset.
func EnsureAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adminType models.TypeUser
		if err := tx.Where("name = ?", string(models.RoleAdmin)).First(&adminType).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("admin user type is missing; seed reference data first")
			}
			return err
		}

		var admin models.User
		findErr := tx.Where("email = ?", email).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{Email: email, Name: "Admin", TypeID: adminType.ID}
			if err := admin.SetPassword(cfg.AdminPassword); err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
			middleware.Logger.InfoContext(ctx, "Admin account created", slog.String("email", email))
		case findErr != nil:
			return findErr
		case admin.TypeID != adminType.ID:
			if err := tx.Model(&models.User{}).Where("id = ?", admin.ID).Update("type_id", adminType.ID).Error; err != nil {
				return err
			}
			middleware.Logger.InfoContext(ctx, "Admin account promoted", slog.String("email", email))
		}
		return nil
	})
}
