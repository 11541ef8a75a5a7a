package sdk

import (
	"sync"
)

// Storage is the durable key/value port used to persist client state.
// Implementations must treat Remove of a missing key as success.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// Storage key suffixes, namespaced by the configured key prefix.
const (
	sessionKeySuffix  = "_user"
	userListKeySuffix = "_users"
)

// DefaultKeyPrefix namespaces the storage keys of this application.
const DefaultKeyPrefix = "sports"

// SessionKey returns the storage key of the session record for prefix.
func SessionKey(prefix string) string {
	return prefix + sessionKeySuffix
}

// UserListKey returns the storage key of the user list cache for prefix.
func UserListKey(prefix string) string {
	return prefix + userListKeySuffix
}

// MemoryStorage is an in-process Storage, used for ephemeral sessions and tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string][]byte
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.items[key] = v
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
