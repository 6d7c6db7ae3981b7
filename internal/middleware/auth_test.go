package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nestling/internal/config"
	"nestling/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, secret, sub, role string, exp time.Duration) string {
	t.Helper()
	claims := IdentityClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthRequired(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})
	userUUID := uuid.New()

	app := fiber.New()
	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		id, _ := IdentityFrom(c)
		return c.JSON(fiber.Map{"uuid": id.UserUUID.String(), "role": id.Role})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedRole   string
	}{
		{"Admin token", "Bearer " + signToken(t, testSecret, userUUID.String(), "admin", time.Hour), http.StatusOK, "admin"},
		{"Unknown role degrades to user", "Bearer " + signToken(t, testSecret, userUUID.String(), "owner", time.Hour), http.StatusOK, "user"},
		{"Missing Header", "", http.StatusUnauthorized, ""},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, ""},
		{"Expired Token", "Bearer " + signToken(t, testSecret, userUUID.String(), "user", -time.Hour), http.StatusUnauthorized, ""},
		{"Wrong Secret", "Bearer " + signToken(t, "another-secret", userUUID.String(), "user", time.Hour), http.StatusUnauthorized, ""},
		{"Non-uuid Subject", "Bearer " + signToken(t, testSecret, "42", "user", time.Hour), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, userUUID.String(), body["uuid"])
				assert.Equal(t, tt.expectedRole, body["role"])
			} else {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.ErrCodeUnauthorized, body.Code)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app := fiber.New()
	app.Get("/test", OptionalAuth, func(c *fiber.Ctx) error {
		_, ok := IdentityFrom(c)
		return c.JSON(fiber.Map{"authenticated": ok})
	})

	run := func(header string) bool {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body["authenticated"]
	}

	assert.False(t, run(""))
	assert.False(t, run("Bearer garbage"))
	assert.True(t, run("Bearer "+signToken(t, testSecret, uuid.NewString(), "user", time.Hour)))
}

func TestRequireCapability(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app := fiber.New()
	app.Delete("/users/:id", AuthRequired, RequireCapability(models.CapManageUsers), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	do := func(role string) int {
		req := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, uuid.NewString(), role, time.Hour))
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusNoContent, do("admin"))
	assert.Equal(t, http.StatusForbidden, do("user"))
}
