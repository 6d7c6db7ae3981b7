package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nestling/internal/config"
	"nestling/internal/middleware"
	"nestling/internal/models"
	"nestling/internal/storage"
	"nestling/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	models.PasswordCost = bcrypt.MinCost
}

const testSecret = "test-secret-that-is-long-enough-for-hs256"

// testAPI is a fully wired app over an in-memory database and blob store.
type testAPI struct {
	app    *fiber.App
	db     *gorm.DB
	ref    testutil.Reference
	store  *storage.MemoryStore
	admin  *models.User
	member *models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	ref := testutil.SeedReference(t, db)
	store := storage.NewMemoryStore("http://cdn.test/media")

	cfg := &config.Config{
		Env:       "test",
		JWTSecret: testSecret,
		PageSize:  20,
	}
	s := NewServerWithDeps(cfg, db, nil, store)
	return &testAPI{
		app:    s.NewApp(),
		db:     db,
		ref:    ref,
		store:  store,
		admin:  testutil.CreateUser(t, db, ref.AdminType.ID, "admin@example.com"),
		member: testutil.CreateUser(t, db, ref.UserType.ID, "member@example.com"),
	}
}

func claimsFor(u *models.User) middleware.IdentityClaims {
	return middleware.IdentityClaims{
		Role: string(u.Role()),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UUID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func bearer(t *testing.T, u *models.User) string {
	t.Helper()
	claims := claimsFor(u)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (a *testAPI) do(t *testing.T, method, path string, body any, user *models.User) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", bearer(t, user))
	}
	return a.send(t, req)
}

func (a *testAPI) send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// multipartRequest builds a form with the given fields and an optional file part.
func multipartRequest(t *testing.T, method, path string, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "photo.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func assertError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	assert.Equal(t, status, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, code, body.Code)
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "disabled", checks["redis"])
}

func TestAuthRequiredRejectsBadTokens(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/calendar/me", nil, nil)
	assertError(t, resp, http.StatusUnauthorized, models.ErrCodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	assertError(t, api.send(t, req), http.StatusUnauthorized, models.ErrCodeUnauthorized)

	claims := claimsFor(api.member)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/calendar/me", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	assertError(t, api.send(t, req), http.StatusUnauthorized, models.ErrCodeUnauthorized)
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	api := newTestAPI(t)
	sqlDB, err := api.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp := api.do(t, http.MethodGet, "/api/env/cities", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Equal(t, models.ErrCodeInternal, body.Code)
	assert.Equal(t, "Internal server error", body.Error)
}

func TestReadinessFailsWithoutDatabase(t *testing.T) {
	api := newTestAPI(t)
	sqlDB, err := api.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp := api.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
