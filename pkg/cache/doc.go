// Package cache provides byte-keyed persistent stores for raw FRED responses.
//
// Responses are stored exactly as received, keyed by request.Spec.Key(), so
// a later lookup returns the identical bytes. Every backend implements Store
// and is safe for concurrent use:
//
//   - RedisStore: Redis via go-redis, optional TTL (default: no expiry)
//   - DiskStore: files under a directory (FRED_CACHE) via go-billy
//   - MinioStore: S3-compatible object storage via minio-go
//   - MemoryStore: in-process map, for tests and short-lived tools
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create store
//	store := cache.NewRedisStore(redisClient, cache.RedisOptions{})
//
//	// Get from cache
//	body, err := store.Get(ctx, spec.Key())
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from FRED
//	}
//
//	// Store a successful response
//	if err := store.Put(ctx, spec.Key(), body); err != nil {
//		return err
//	}
//
// # Metrics
//
// The stores export Prometheus metrics labelled by backend
// ("redis", "disk", "minio", "memory"):
//
//   - fred_cache_hits_total{backend} - Cache hits
//   - fred_cache_misses_total{backend} - Cache misses
//   - fred_cache_errors_total{backend,operation} - Store operation errors
//   - fred_cache_stored_bytes_total{backend} - Bytes written
package cache
