package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nestling/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

func rateLimitBypassed() bool {
	if cfg == nil {
		return false
	}
	switch cfg.Env {
	case "test", "development", "":
		return true
	}
	return false
}

// CheckRateLimit increments the counter for resource/id and reports whether the
// caller is still within limit. Development and test environments are never throttled.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing limit requests per window,
// keyed by user token when authenticated and by remote IP otherwise.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if identity, ok := IdentityFrom(c); ok {
			id = "user:" + identity.UserUUID.String()
		} else {
			id = "ip:" + c.IP()
		}

		resource := name
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("resource", resource), slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{Error: "rate limit unavailable"})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{Error: "rate limit exceeded"})
		}
		return c.Next()
	}
}
