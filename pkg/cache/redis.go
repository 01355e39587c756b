package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// Prefix is prepended to every key (e.g. "myapp:").
	Prefix string

	// TTL expires entries after the given duration. Zero keeps them forever.
	TTL time.Duration
}

// RedisStore stores raw responses in Redis.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a new store with Redis backend.
func NewRedisStore(redisClient *redis.Client, opts RedisOptions) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
	}
}

// Get retrieves the response stored under key.
// Returns ErrCacheMiss if the key doesn't exist.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(BackendRedis).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(BackendRedis, "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.WithLabelValues(BackendRedis).Inc()
	return data, nil
}

// Put stores value under key with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.redis.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues(BackendRedis, "put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheStoredBytes.WithLabelValues(BackendRedis).Add(float64(len(value)))
	return nil
}

// Delete removes the entry stored under key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.prefix+key).Err(); err != nil {
		CacheErrors.WithLabelValues(BackendRedis, "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}
