package repository

import (
	"context"
	"testing"

	"nestling/internal/models"
	"nestling/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_PageAndFilters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	testutil.CreateEvents(t, db, ref.Moscow.ID, ref.Opened.ID, 3, ref.Tags[0])
	testutil.CreateEvents(t, db, ref.Astrakhan.ID, ref.Opened.ID, 2, ref.Tags[1])
	repo := NewEventRepository(db)
	ctx := context.Background()

	all, total, err := repo.Page(ctx, EventFilter{}, PageRequest{Page: 1, Size: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, all, 4)
	assert.False(t, all[0].ConductedAt.Before(all[1].ConductedAt))
	assert.Equal(t, models.StateOpened, all[0].State.Name)

	inMoscow, total, err := repo.Page(ctx, EventFilter{CityID: ref.Moscow.ID}, PageRequest{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, e := range inMoscow {
		assert.Equal(t, "Moscow", e.City.Name)
	}

	_, total, err = repo.Page(ctx, EventFilter{Tags: []uint{ref.Tags[0].ID, ref.Tags[1].ID}}, PageRequest{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestEventRepository_RegistrationsRoundTrip(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	u1 := testutil.CreateUser(t, db, ref.UserType.ID, "one@example.com")
	u2 := testutil.CreateUser(t, db, ref.UserType.ID, "two@example.com")
	event := testutil.CreateEvents(t, db, ref.Moscow.ID, ref.Opened.ID, 1)[0]
	repo := NewEventRepository(db)
	ctx := context.Background()

	// deleting an absent registration succeeds
	require.NoError(t, repo.RemoveRegistration(ctx, u1.ID, event.ID))

	require.NoError(t, repo.AddRegistration(ctx, u1.ID, event.ID))
	require.NoError(t, repo.AddRegistration(ctx, u2.ID, event.ID))
	err := repo.AddRegistration(ctx, u2.ID, event.ID)
	assert.Equal(t, models.ErrCodeConflict, models.ErrorCode(err))

	count, member, err := repo.RegistrationInfo(ctx, event.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, member)

	people, err := repo.Registrants(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "one@example.com", people[0].Email)

	mine, total, err := repo.PageRegisteredBy(ctx, u1.ID, PageRequest{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, event.UUID, mine[0].UUID)

	require.NoError(t, repo.RemoveRegistration(ctx, u2.ID, event.ID))
	count, member, err = repo.RegistrationInfo(ctx, event.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.False(t, member)
}

func TestEventRepository_CountMatchesRegistrantsAfterUserDelete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	stays := testutil.CreateUser(t, db, ref.UserType.ID, "stays@example.com")
	leaves := testutil.CreateUser(t, db, ref.UserType.ID, "leaves@example.com")
	event := testutil.CreateEvents(t, db, ref.Moscow.ID, ref.Opened.ID, 1)[0]
	repo := NewEventRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.AddRegistration(ctx, stays.ID, event.ID))
	require.NoError(t, repo.AddRegistration(ctx, leaves.ID, event.ID))

	require.NoError(t, NewUserRepository(db).Delete(ctx, leaves.ID))

	count, member, err := repo.RegistrationInfo(ctx, event.ID, stays.ID)
	require.NoError(t, err)
	people, err := repo.Registrants(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, member)
	require.Len(t, people, int(count))
	assert.Equal(t, stays.UUID, people[0].UUID)
}

func TestEventRepository_DeleteClearsLinks(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	u := testutil.CreateUser(t, db, ref.UserType.ID, "one@example.com")
	event := testutil.CreateEvents(t, db, ref.Moscow.ID, ref.Opened.ID, 1, ref.Tags[0])[0]
	repo := NewEventRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.AddRegistration(ctx, u.ID, event.ID))

	require.NoError(t, repo.Delete(ctx, &event))

	var regs, links int64
	db.Model(&models.Registration{}).Count(&regs)
	db.Table("tag_events").Count(&links)
	assert.Zero(t, regs)
	assert.Zero(t, links)
}

func TestEventRepository_UpdateState(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	created := testutil.CreateEvents(t, db, ref.Moscow.ID, ref.Opened.ID, 1, ref.Tags[0])[0]
	repo := NewEventRepository(db)
	ctx := context.Background()

	event, err := repo.GetByUUID(ctx, created.UUID)
	require.NoError(t, err)
	event.StateID = ref.Closed.ID
	require.NoError(t, repo.Update(ctx, event, nil))

	reloaded, err := repo.GetByUUID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.StateClosed, reloaded.State.Name)
	assert.Empty(t, reloaded.Tags)
}
