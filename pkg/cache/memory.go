package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps responses in process memory. Values are copied on the
// way in and out, so callers may reuse their buffers.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get retrieves the response stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	value, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(BackendMemory).Inc()
		return nil, ErrCacheMiss
	}
	CacheHits.WithLabelValues(BackendMemory).Inc()
	return append([]byte(nil), value...), nil
}

// Put stores value under key.
func (m *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[key] = append([]byte(nil), value...)
	m.mu.Unlock()

	CacheStoredBytes.WithLabelValues(BackendMemory).Add(float64(len(value)))
	return nil
}

// Delete removes the entry stored under key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
