package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// Store is a byte-keyed persistent store for raw responses.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}

// Deleter is implemented by stores that can drop a single entry. Deleting a
// missing key is not an error.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Backend labels used in metrics and logs.
const (
	BackendRedis  = "redis"
	BackendDisk   = "disk"
	BackendMinio  = "minio"
	BackendMemory = "memory"
)
