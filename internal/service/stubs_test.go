package service

import (
	"context"
	"errors"
	"testing"

	"nestling/internal/models"
	"nestling/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// articleRepoStub is a stub for repository.ArticleRepository.
type articleRepoStub struct {
	createFn      func(context.Context, *models.Article) error
	getByUUIDFn   func(context.Context, uuid.UUID) (*models.Article, error)
	pageFn        func(context.Context, repository.ArticleFilter, repository.PageRequest) ([]models.Article, int64, error)
	pageLikedByFn func(context.Context, uint, repository.PageRequest) ([]models.Article, int64, error)
	searchFn      func(context.Context, string, int) ([]models.Article, error)
	updateFn      func(context.Context, *models.Article, []models.Tag) error
	deleteFn      func(context.Context, *models.Article) error
	addLikeFn     func(context.Context, uint, uint) error
	removeLikeFn  func(context.Context, uint, uint) error
	likeInfoFn    func(context.Context, uint, uint) (int64, bool, error)
}

func (s *articleRepoStub) Create(ctx context.Context, a *models.Article) error {
	return s.createFn(ctx, a)
}
func (s *articleRepoStub) GetByUUID(ctx context.Context, token uuid.UUID) (*models.Article, error) {
	return s.getByUUIDFn(ctx, token)
}
func (s *articleRepoStub) Page(ctx context.Context, f repository.ArticleFilter, p repository.PageRequest) ([]models.Article, int64, error) {
	return s.pageFn(ctx, f, p)
}
func (s *articleRepoStub) PageLikedBy(ctx context.Context, userID uint, p repository.PageRequest) ([]models.Article, int64, error) {
	return s.pageLikedByFn(ctx, userID, p)
}
func (s *articleRepoStub) Search(ctx context.Context, q string, count int) ([]models.Article, error) {
	return s.searchFn(ctx, q, count)
}
func (s *articleRepoStub) Update(ctx context.Context, a *models.Article, tags []models.Tag) error {
	return s.updateFn(ctx, a, tags)
}
func (s *articleRepoStub) Delete(ctx context.Context, a *models.Article) error {
	return s.deleteFn(ctx, a)
}
func (s *articleRepoStub) AddLike(ctx context.Context, userID, articleID uint) error {
	return s.addLikeFn(ctx, userID, articleID)
}
func (s *articleRepoStub) RemoveLike(ctx context.Context, userID, articleID uint) error {
	return s.removeLikeFn(ctx, userID, articleID)
}
func (s *articleRepoStub) LikeInfo(ctx context.Context, articleID, userID uint) (int64, bool, error) {
	return s.likeInfoFn(ctx, articleID, userID)
}

var errUnexpectedCall = errors.New("unexpected repository call")

func noopArticleRepo() *articleRepoStub {
	return &articleRepoStub{
		createFn:    func(context.Context, *models.Article) error { return errUnexpectedCall },
		getByUUIDFn: func(_ context.Context, token uuid.UUID) (*models.Article, error) { return &models.Article{ID: 7, UUID: token}, nil },
		pageFn: func(context.Context, repository.ArticleFilter, repository.PageRequest) ([]models.Article, int64, error) {
			return nil, 0, nil
		},
		pageLikedByFn: func(context.Context, uint, repository.PageRequest) ([]models.Article, int64, error) {
			return nil, 0, nil
		},
		searchFn:     func(context.Context, string, int) ([]models.Article, error) { return nil, nil },
		updateFn:     func(context.Context, *models.Article, []models.Tag) error { return errUnexpectedCall },
		deleteFn:     func(context.Context, *models.Article) error { return errUnexpectedCall },
		addLikeFn:    func(context.Context, uint, uint) error { return nil },
		removeLikeFn: func(context.Context, uint, uint) error { return nil },
		likeInfoFn:   func(context.Context, uint, uint) (int64, bool, error) { return 0, false, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByUUIDFn      func(context.Context, uuid.UUID) (*models.User, error)
	updatePasswordFn func(context.Context, uint, string) error
}

func (s *userRepoStub) Create(context.Context, *models.User) error { return errUnexpectedCall }
func (s *userRepoStub) GetByID(context.Context, uint) (*models.User, error) {
	return nil, errUnexpectedCall
}
func (s *userRepoStub) GetByUUID(ctx context.Context, token uuid.UUID) (*models.User, error) {
	return s.getByUUIDFn(ctx, token)
}
func (s *userRepoStub) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, errUnexpectedCall
}
func (s *userRepoStub) Update(context.Context, *models.User) error { return errUnexpectedCall }
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}
func (s *userRepoStub) UpdateIcon(context.Context, uint, string) error { return errUnexpectedCall }
func (s *userRepoStub) Delete(context.Context, uint) error             { return errUnexpectedCall }
func (s *userRepoStub) Page(context.Context, repository.PageRequest) ([]models.User, int64, error) {
	return nil, 0, errUnexpectedCall
}
func (s *userRepoStub) Search(context.Context, repository.UserSearch, int) ([]models.User, error) {
	return nil, errUnexpectedCall
}

func userRepoWith(users ...*models.User) *userRepoStub {
	return &userRepoStub{
		getByUUIDFn: func(_ context.Context, token uuid.UUID) (*models.User, error) {
			for _, u := range users {
				if u.UUID == token {
					return u, nil
				}
			}
			return nil, models.NewNotFoundError("User", token)
		},
		updatePasswordFn: func(context.Context, uint, string) error { return errUnexpectedCall },
	}
}

func TestArticleService_MutationsRequireManageContent(t *testing.T) {
	t.Parallel()

	svc := NewArticleService(noopArticleRepo(), userRepoWith(), nil, nil, Paging{})
	plain := models.Identity{UserUUID: uuid.New(), Role: models.RoleUser}
	ctx := context.Background()

	_, err := svc.Create(ctx, plain, ArticleInput{Name: "x"})
	assertCode(t, err, models.ErrCodeForbidden)

	_, err = svc.Update(ctx, plain, uuid.New(), ArticleInput{Name: "x"})
	assertCode(t, err, models.ErrCodeForbidden)

	err = svc.Delete(ctx, plain, uuid.New())
	assertCode(t, err, models.ErrCodeForbidden)
}

func TestArticleService_LikesAnonymous(t *testing.T) {
	t.Parallel()

	repo := noopArticleRepo()
	var askedFor uint = 99
	repo.likeInfoFn = func(_ context.Context, articleID, userID uint) (int64, bool, error) {
		assert.Equal(t, uint(7), articleID)
		askedFor = userID
		return 4, false, nil
	}
	svc := NewArticleService(repo, userRepoWith(), nil, nil, Paging{})

	got, err := svc.Likes(context.Background(), nil, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, &MembershipView{Count: 4, Member: false}, got)
	assert.Zero(t, askedFor)
}

func TestArticleService_LikeByUnknownUserIsUnauthorized(t *testing.T) {
	t.Parallel()

	svc := NewArticleService(noopArticleRepo(), userRepoWith(), nil, nil, Paging{})
	_, err := svc.Like(context.Background(), models.Identity{UserUUID: uuid.New()}, uuid.New())
	assertCode(t, err, models.ErrCodeUnauthorized)
}

func TestArticleService_PageClampsAndCounts(t *testing.T) {
	t.Parallel()

	repo := noopArticleRepo()
	repo.pageFn = func(_ context.Context, f repository.ArticleFilter, p repository.PageRequest) ([]models.Article, int64, error) {
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, 10, p.Size)
		assert.Equal(t, []uint{3}, f.Tags)
		return []models.Article{{Name: "only"}}, 21, nil
	}
	svc := NewArticleService(repo, userRepoWith(), nil, nil, Paging{PageSize: 10})

	page, err := svc.Page(context.Background(), -4, repository.ArticleFilter{Tags: []uint{3}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 10, page.Size)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "only", page.Items[0].Name)
	assert.NotNil(t, page.Items[0].Tags)
}

func TestArticleService_RepositoryErrorPropagates(t *testing.T) {
	t.Parallel()

	repoErr := models.NewInternalError(errors.New("db down"))
	repo := noopArticleRepo()
	repo.searchFn = func(context.Context, string, int) ([]models.Article, error) { return nil, repoErr }
	svc := NewArticleService(repo, userRepoWith(), nil, nil, Paging{})

	_, err := svc.Search(context.Background(), "x", 0)
	assert.ErrorIs(t, err, repoErr)
}

func TestUserService_ChangePasswordNeverWritesOnFailure(t *testing.T) {
	t.Parallel()

	u := &models.User{ID: 3, UUID: uuid.New()}
	require.NoError(t, u.SetPassword("OldPassw0rd"))
	repo := userRepoWith(u)
	writes := 0
	repo.updatePasswordFn = func(context.Context, uint, string) error {
		writes++
		return nil
	}
	svc := NewUserService(repo, nil, nil, nil, Paging{})
	id := models.Identity{UserUUID: u.UUID, Role: models.RoleUser}
	ctx := context.Background()

	cases := []struct {
		name string
		in   PasswordChange
	}{
		{"wrong old password", PasswordChange{Old: "nope", New: "NewPassw0rd", Confirm: "NewPassw0rd"}},
		{"confirmation mismatch", PasswordChange{Old: "OldPassw0rd", New: "NewPassw0rd", Confirm: "NewPassw0rD"}},
		{"weak new password", PasswordChange{Old: "OldPassw0rd", New: "short", Confirm: "short"}},
	}
	for _, tc := range cases {
		err := svc.ChangePassword(ctx, id, tc.in)
		assertCode(t, err, models.ErrCodeValidation)
	}
	assert.Zero(t, writes)
	assert.True(t, u.CheckPassword("OldPassw0rd"))

	require.NoError(t, svc.ChangePassword(ctx, id, PasswordChange{Old: "OldPassw0rd", New: "NewPassw0rd", Confirm: "NewPassw0rd"}))
	assert.Equal(t, 1, writes)
}
