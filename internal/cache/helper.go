package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"nestling/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads key into dest. It reports false when the key is absent or no
// client is configured.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside serves dest from Redis when possible; otherwise fetch fills dest and the
// result is stored best-effort. Redis failures fall through to fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}
