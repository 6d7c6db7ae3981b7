// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strings"

	"nestling/internal/config"
	"nestling/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const identityLocal = "identity"

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// IdentityClaims are the claims the identity provider signs. Subject is the
// user token; Role is one of the closed role names.
type IdentityClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IdentityFrom returns the identity resolved for this request, if any.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	id, ok := c.Locals(identityLocal).(models.Identity)
	return id, ok
}

// SetIdentity stores id on the request. Tests use it to bypass token parsing.
func SetIdentity(c *fiber.Ctx, id models.Identity) {
	c.Locals(identityLocal, id)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, id.UserUUID.String()))
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return unauthorized(c, "Authorization header required")
	}

	id, err := parseBearer(header)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	SetIdentity(c, id)
	return c.Next()
}

// OptionalAuth resolves the identity when a valid bearer token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(c *fiber.Ctx) error {
	if header := c.Get("Authorization"); header != "" {
		if id, err := parseBearer(header); err == nil {
			SetIdentity(c, id)
		}
	}
	return c.Next()
}

// RequireCapability rejects callers whose role lacks capability. It must run after AuthRequired.
func RequireCapability(capability models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return unauthorized(c, "Authentication required")
		}
		if !id.Can(capability) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Access denied"))
		}
		return c.Next()
	}
}

func parseBearer(header string) (models.Identity, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.Identity{}, errors.New("Invalid authorization header format")
	}

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, errors.New("Invalid or expired token")
	}

	if claims.Subject == "" {
		return models.Identity{}, errors.New("Invalid token structure - missing subject")
	}
	userUUID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Identity{}, errors.New("Invalid user token in subject")
	}

	return models.Identity{UserUUID: userUUID, Role: models.ParseRole(claims.Role)}, nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(message))
}
