package service

import (
	"testing"

	"nestling/internal/models"
	"nestling/internal/repository"
	"nestling/internal/storage"
	"nestling/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	models.PasswordCost = bcrypt.MinCost
}

const testBaseURL = "http://cdn.test/media"

// harness wires every service against one in-memory database.
type harness struct {
	db    *gorm.DB
	ref   testutil.Reference
	store *storage.MemoryStore

	admin   *models.User
	member  *models.User
	adminID models.Identity
	userID  models.Identity

	articles  *ArticleService
	events    *EventService
	comments  *CommentService
	users     *UserService
	refs      *ReferenceService
	calendars *CalendarService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	store := storage.NewMemoryStore(testBaseURL)
	paging := Paging{PageSize: DefaultPageSize, SearchDefault: DefaultSearchCount, SearchMaxCount: DefaultSearchMaxCount}
	media := NewMediaService(nil)

	articleRepo := repository.NewArticleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	refRepo := repository.NewReferenceRepository(db)

	h := &harness{
		db:        db,
		ref:       ref,
		store:     store,
		articles:  NewArticleService(articleRepo, userRepo, refRepo, store, paging),
		events:    NewEventService(eventRepo, userRepo, refRepo, store, paging),
		comments:  NewCommentService(repository.NewCommentRepository(db), articleRepo, userRepo, store),
		users:     NewUserService(userRepo, refRepo, store, media, paging),
		refs:      NewReferenceService(refRepo, paging),
		calendars: NewCalendarService(repository.NewCalendarRepository(db), userRepo, store, media),
	}
	h.admin = testutil.CreateUser(t, db, ref.AdminType.ID, "admin@example.com")
	h.member = testutil.CreateUser(t, db, ref.UserType.ID, "member@example.com")
	h.adminID = identityOf(h.admin)
	h.userID = identityOf(h.member)
	return h
}

func identityOf(u *models.User) models.Identity {
	return models.Identity{UserUUID: u.UUID, Role: u.Role()}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, models.ErrorCode(err), "unexpected error: %v", err)
}
