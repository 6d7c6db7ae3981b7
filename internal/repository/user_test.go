package repository

import (
	"context"
	"testing"

	"nestling/internal/models"
	"nestling/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateConflicts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	phone := "+70000000001"
	first := &models.User{Email: "a@example.com", Phone: &phone, TypeID: ref.UserType.ID, PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, models.DefaultIconKey, first.Icon)

	dupEmail := &models.User{Email: "a@example.com", TypeID: ref.UserType.ID, PasswordHash: "x"}
	assert.Equal(t, models.ErrCodeConflict, models.ErrorCode(repo.Create(ctx, dupEmail)))

	dupPhone := &models.User{Email: "b@example.com", Phone: &phone, TypeID: ref.UserType.ID, PasswordHash: "x"}
	assert.Equal(t, models.ErrCodeConflict, models.ErrorCode(repo.Create(ctx, dupPhone)))
}

func TestUserRepository_Lookups(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	u := testutil.CreateUser(t, db, ref.AdminType.ID, "admin@example.com")
	repo := NewUserRepository(db)
	ctx := context.Background()

	byUUID, err := repo.GetByUUID(ctx, u.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, byUUID.Role())

	byEmail, err := repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_UpdateLeavesCredential(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	u := testutil.CreateUser(t, db, ref.UserType.ID, "a@example.com")
	repo := NewUserRepository(db)
	ctx := context.Background()

	u.City = "Astrakhan"
	u.PasswordHash = "tampered"
	require.NoError(t, repo.Update(ctx, u))

	reloaded, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Astrakhan", reloaded.City)
	assert.True(t, reloaded.CheckPassword("Passw0rd!"))

	require.NoError(t, repo.UpdateIcon(ctx, u.ID, "icon/new.webp"))
	reloaded, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "icon/new.webp", reloaded.Icon)
}

func TestUserRepository_SoftDelete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	u := testutil.CreateUser(t, db, ref.UserType.ID, "a@example.com")
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err := repo.GetByUUID(ctx, u.UUID)
	assert.True(t, models.IsNotFound(err))

	var raw int64
	db.Unscoped().Model(&models.User{}).Where("id = ?", u.ID).Count(&raw)
	assert.Equal(t, int64(1), raw)

	assert.True(t, models.IsNotFound(repo.Delete(ctx, u.ID)))
}

func TestUserRepository_PageAndSearch(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	people := []models.User{
		{Email: "1@example.com", Surname: "Petrova", Name: "Maria", Patronymic: "Ivanovna"},
		{Email: "2@example.com", Surname: "Ivanova", Name: "Olga", Patronymic: "Petrovna"},
		{Email: "3@example.com", Surname: "Ivanova", Name: "Anna", Patronymic: "Sergeevna"},
	}
	for i := range people {
		people[i].TypeID = ref.UserType.ID
		people[i].PasswordHash = "x"
		require.NoError(t, repo.Create(ctx, &people[i]))
	}

	page, total, err := repo.Page(ctx, PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "Anna", page[0].Name)
	assert.Equal(t, "Olga", page[1].Name)

	found, err := repo.Search(ctx, UserSearch{Surname: "ivan"}, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.Search(ctx, UserSearch{Surname: "ivan", Name: "ol"}, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "2@example.com", found[0].Email)
}
