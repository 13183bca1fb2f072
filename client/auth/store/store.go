package store

import (
	"context"
	"sync"
)

const (
	// AccessTokenKey holds the short-lived bearer token
	AccessTokenKey = "accessToken"
	// RefreshTokenKey holds the token exchanged at /auth/refresh
	RefreshTokenKey = "refreshToken"
	// UserKey holds the cached user record (JSON)
	UserKey = "user"
)

// SessionKeys lists every key purged on logout or refresh failure.
var SessionKeys = []string{AccessTokenKey, RefreshTokenKey, UserKey}

// Store is a pluggable key/value persistence layer for session credentials.
// The in‑memory default is fine for CLI tools and tests; swap with file or Redis for durability.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Batch is implemented by stores able to write or remove several keys atomically.
type Batch interface {
	SetMany(ctx context.Context, values map[string]string) error
	RemoveMany(ctx context.Context, keys ...string) error
}

type MemoryStoreOption func(*memoryStore)

// WithValues seeds the memory store
func WithValues(values map[string]string) MemoryStoreOption {
	return func(m *memoryStore) {
		for k, v := range values {
			m.values[k] = v
		}
	}
}

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryStore) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *memoryStore) RemoveMany(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore(options ...MemoryStoreOption) Store {
	ret := &memoryStore{values: map[string]string{}}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
