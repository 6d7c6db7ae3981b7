package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nestling/internal/cache"
	"nestling/internal/models"
	"nestling/internal/repository"
	"nestling/internal/storage"
	"nestling/internal/validation"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserService struct {
	users  repository.UserRepository
	refs   repository.ReferenceRepository
	store  storage.Store
	media  *MediaService
	views  viewMapper
	paging Paging
}

// UserInput carries profile fields. Password is only read on create and
// TypeID only by callers allowed to manage users.
type UserInput struct {
	Email      string  `json:"email"`
	Phone      *string `json:"phone"`
	Password   string  `json:"password,omitempty"`
	Name       string  `json:"name"`
	Surname    string  `json:"surname"`
	Patronymic string  `json:"patronymic"`
	MoodEmoji  string  `json:"mood_emoji"`
	City       string  `json:"city"`
	BirthDate  *string `json:"birth_date"`
	TypeID     uint    `json:"type_id"`
}

// PasswordChange is a request to replace the caller's password.
type PasswordChange struct {
	Old     string `json:"old_password"`
	New     string `json:"new_password"`
	Confirm string `json:"confirm_password"`
}

func NewUserService(
	users repository.UserRepository,
	refs repository.ReferenceRepository,
	store storage.Store,
	media *MediaService,
	paging Paging,
) *UserService {
	return &UserService{
		users:  users,
		refs:   refs,
		store:  store,
		media:  media,
		views:  viewMapper{store: store},
		paging: paging,
	}
}

func normalizePhone(phone *string) (*string, error) {
	if phone == nil {
		return nil, nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil, nil
	}
	if err := validation.ValidatePhone(p); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return &p, nil
}

func parseBirthDate(raw *string) (*datatypes.Date, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	canonical, err := models.CanonicalDate(*raw)
	if err != nil {
		return nil, models.NewValidationError("Invalid birth_date")
	}
	t, _ := time.Parse(models.CalendarDateLayout, canonical)
	d := datatypes.Date(t)
	return &d, nil
}

func (s *UserService) resolveType(ctx context.Context, typeID uint) (*models.TypeUser, error) {
	typ, err := s.refs.GetTypeUser(ctx, typeID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewValidationError("Unknown user type")
		}
		return nil, err
	}
	return typ, nil
}

// Create registers a user on behalf of an administrator.
func (s *UserService) Create(ctx context.Context, id models.Identity, in UserInput) (*UserView, error) {
	if err := requireCapability(id, models.CapManageUsers); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	phone, err := normalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	birth, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}
	typ, err := s.resolveType(ctx, in.TypeID)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:      email,
		Phone:      phone,
		Name:       strings.TrimSpace(in.Name),
		Surname:    strings.TrimSpace(in.Surname),
		Patronymic: strings.TrimSpace(in.Patronymic),
		MoodEmoji:  in.MoodEmoji,
		City:       in.City,
		BirthDate:  birth,
		TypeID:     typ.ID,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Type = *typ

	v := s.views.user(user)
	return &v, nil
}

func (s *UserService) Get(ctx context.Context, token uuid.UUID) (*UserView, error) {
	user, err := s.users.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}
	v := s.views.user(user)
	return &v, nil
}

// Page lists users by surname and name.
func (s *UserService) Page(ctx context.Context, id models.Identity, page int) (Page[UserView], error) {
	if err := requireCapability(id, models.CapManageUsers); err != nil {
		return Page[UserView]{}, err
	}
	req := s.paging.request(page)
	rows, total, err := s.users.Page(ctx, req)
	if err != nil {
		return Page[UserView]{}, err
	}
	return newPage(rows, total, req, s.views.user), nil
}

// Search matches "surname name patronymic" word by word. Missing words match anything.
func (s *UserService) Search(ctx context.Context, id models.Identity, query string, count int) ([]UserView, error) {
	if err := requireCapability(id, models.CapManageUsers); err != nil {
		return nil, err
	}
	rows, err := s.users.Search(ctx, splitFullName(query), s.paging.searchCount(count))
	if err != nil {
		return nil, err
	}
	out := make([]UserView, 0, len(rows))
	for i := range rows {
		out = append(out, s.views.user(&rows[i]))
	}
	return out, nil
}

func splitFullName(query string) repository.UserSearch {
	parts := strings.Fields(query)
	var search repository.UserSearch
	if len(parts) > 0 {
		search.Surname = parts[0]
	}
	if len(parts) > 1 {
		search.Name = parts[1]
	}
	if len(parts) > 2 {
		search.Patronymic = strings.Join(parts[2:], " ")
	}
	return search
}

// Update rewrites the profile. Users may edit themselves; changing the type
// needs manage_users. The credential is never touched here.
func (s *UserService) Update(ctx context.Context, id models.Identity, token uuid.UUID, in UserInput) (*UserView, error) {
	admin := id.Can(models.CapManageUsers)
	if !admin && id.UserUUID != token {
		return nil, models.NewForbiddenError("You can only edit your own profile")
	}
	user, err := s.users.GetByUUID(ctx, token)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = email
	}
	phone, err := normalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	birth, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}
	if in.TypeID != 0 && in.TypeID != user.TypeID {
		if !admin {
			return nil, models.NewForbiddenError("Only administrators can change the user type")
		}
		typ, err := s.resolveType(ctx, in.TypeID)
		if err != nil {
			return nil, err
		}
		user.TypeID = typ.ID
		user.Type = *typ
	}

	user.Phone = phone
	user.Name = strings.TrimSpace(in.Name)
	user.Surname = strings.TrimSpace(in.Surname)
	user.Patronymic = strings.TrimSpace(in.Patronymic)
	user.MoodEmoji = in.MoodEmoji
	user.City = in.City
	user.BirthDate = birth
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	cache.InvalidateDetails(ctx)

	v := s.views.user(user)
	return &v, nil
}

// ChangePassword replaces the caller's password. Nothing is written unless the
// old password verifies, new equals confirm and new meets the policy.
func (s *UserService) ChangePassword(ctx context.Context, id models.Identity, in PasswordChange) error {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return err
	}
	if !user.CheckPassword(in.Old) {
		return models.NewValidationError("Current password is incorrect")
	}
	if in.New != in.Confirm {
		return models.NewValidationError("New password and confirmation do not match")
	}
	if err := validation.ValidatePassword(in.New); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := user.SetPassword(in.New); err != nil {
		return models.NewInternalError(err)
	}
	return s.users.UpdatePassword(ctx, user.ID, user.PasswordHash)
}

// UploadAvatar stores a new icon for the caller and drops the previous one.
func (s *UserService) UploadAvatar(ctx context.Context, id models.Identity, upload ImageUpload) (*UserView, error) {
	user, err := callerUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	encoded, err := s.media.Normalize(upload, AvatarMaxSide)
	if err != nil {
		return nil, err
	}

	key := avatarKey(user)
	if err := s.store.Upload(ctx, key, encoded, WebPContentType); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.users.UpdateIcon(ctx, user.ID, key); err != nil {
		dropBlob(ctx, s.store, key)
		return nil, err
	}
	cache.InvalidateDetails(ctx)
	dropBlob(ctx, s.store, user.Icon)

	user.Icon = key
	v := s.views.user(user)
	return &v, nil
}

func avatarKey(u *models.User) string {
	clean := strings.NewReplacer("/", "-", "\\", "-", " ", "-")
	return fmt.Sprintf("icon/%s_%s_%s_%s.webp",
		clean.Replace(u.Surname), clean.Replace(u.Name), clean.Replace(u.Patronymic), uuid.NewString())
}

// Delete soft-deletes the user. Their content stays attributed to them.
func (s *UserService) Delete(ctx context.Context, id models.Identity, token uuid.UUID) error {
	if err := requireCapability(id, models.CapManageUsers); err != nil {
		return err
	}
	user, err := s.users.GetByUUID(ctx, token)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	cache.InvalidateDetails(ctx)
	return nil
}

// Types lists the user types.
func (s *UserService) Types(ctx context.Context) ([]models.TypeUser, error) {
	return s.refs.ListTypeUsers(ctx)
}
