// Package storage holds the blob store used for avatars and calendar images.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Download when the key holds no object.
var ErrNotFound = errors.New("blob not found")

// Store is a bucket of path-like keys.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
