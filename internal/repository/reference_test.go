package repository

import (
	"context"
	"testing"

	"nestling/internal/cache"
	"nestling/internal/models"
	"nestling/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceRepository_TagsByIDsDropsUnknown(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	repo := NewReferenceRepository(db)

	tags, err := repo.TagsByIDs(context.Background(), []uint{ref.Tags[2].ID, 999, ref.Tags[0].ID})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "health", tags[0].Name)
	assert.Equal(t, "sport", tags[1].Name)

	empty, err := repo.TagsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReferenceRepository_SaveAndGet(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.SeedReference(t, db)
	repo := NewReferenceRepository(db)
	ctx := context.Background()

	city := &models.City{Name: "Kazan", Region: "Tatarstan"}
	require.NoError(t, repo.SaveCity(ctx, city))
	require.NotZero(t, city.ID)

	city.Region = "Republic of Tatarstan"
	require.NoError(t, repo.SaveCity(ctx, city))

	got, err := repo.GetCity(ctx, city.ID)
	require.NoError(t, err)
	assert.Equal(t, "Republic of Tatarstan", got.Region)

	_, err = repo.GetTag(ctx, 4242)
	assert.True(t, models.IsNotFound(err))

	err = repo.SaveTag(ctx, &models.Tag{Name: "health"})
	assert.Equal(t, models.ErrCodeConflict, models.ErrorCode(err))

	state, err := repo.StateEventByName(ctx, models.StateOpened)
	require.NoError(t, err)
	assert.Equal(t, models.StateOpened, state.Name)
}

func TestReferenceRepository_SearchTags(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.SeedReference(t, db)
	repo := NewReferenceRepository(db)

	tags, err := repo.SearchTags(context.Background(), "O", 10)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "food", tags[0].Name)
	assert.Equal(t, "sport", tags[1].Name)
}

func TestReferenceRepository_ListIsCachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewSQLiteDB(t)
	testutil.SeedReference(t, db)
	repo := NewReferenceRepository(db)
	ctx := context.Background()

	cities, err := repo.ListCities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, 2)
	assert.True(t, mr.Exists(cache.CitiesKey))

	// a row written behind the repository's back is not visible until invalidation
	require.NoError(t, db.Create(&models.City{Name: "Tver"}).Error)
	cities, err = repo.ListCities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, 2)

	require.NoError(t, repo.SaveCity(ctx, &models.City{Name: "Omsk"}))
	assert.False(t, mr.Exists(cache.CitiesKey))
	cities, err = repo.ListCities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, 4)
}
