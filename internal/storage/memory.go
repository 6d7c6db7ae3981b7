package storage

import (
	"context"
	"sync"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps blobs in process. It backs tests and local runs without a bucket.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string

	// FailUploads and FailDeletes force the next operations to fail.
	FailUploads error
	FailDeletes error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object), baseURL: baseURL}
}

func (s *MemoryStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if s.FailUploads != nil {
		return s.FailUploads
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: buf, ContentType: contentType}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.FailDeletes != nil {
		return s.FailDeletes
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return joinURL(s.baseURL, key)
}

// Get returns the object stored under key.
func (s *MemoryStore) Get(key string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

// Keys lists every stored key.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}
