package bootstrap

import (
	"context"
	"testing"

	"nestling/internal/config"
	"nestling/internal/models"
	"nestling/internal/seed"
	"nestling/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	models.PasswordCost = bcrypt.MinCost
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, seed.Reference(ctx, db))
	cfg := &config.Config{AdminEmail: " Root@Example.com ", AdminPassword: "Adm1nPassword"}

	require.NoError(t, EnsureAdmin(ctx, cfg, db))

	var admin models.User
	require.NoError(t, db.Preload("Type").Where("email = ?", "root@example.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role())
	assert.True(t, admin.CheckPassword("Adm1nPassword"))

	// A second run with another password neither duplicates nor resets.
	cfg.AdminPassword = "Other1Password"
	require.NoError(t, EnsureAdmin(ctx, cfg, db))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, db.First(&admin, admin.ID).Error)
	assert.True(t, admin.CheckPassword("Adm1nPassword"))
}

func TestEnsureAdminPromotesExistingUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, seed.Reference(ctx, db))

	var userType models.TypeUser
	require.NoError(t, db.Where("name = ?", "user").First(&userType).Error)
	existing := testutil.CreateUser(t, db, userType.ID, "boss@example.com")

	require.NoError(t, EnsureAdmin(ctx, &config.Config{AdminEmail: "boss@example.com", AdminPassword: "x"}, db))

	var reloaded models.User
	require.NoError(t, db.Preload("Type").First(&reloaded, existing.ID).Error)
	assert.Equal(t, models.RoleAdmin, reloaded.Role())
}

func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, EnsureAdmin(context.Background(), &config.Config{AdminEmail: "a@example.com"}, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnsureAdminNeedsReferenceData(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	err := EnsureAdmin(context.Background(), &config.Config{AdminEmail: "a@example.com", AdminPassword: "Adm1nPassword"}, db)
	assert.Error(t, err)
}
