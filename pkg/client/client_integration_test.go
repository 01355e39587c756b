//go:build integration

package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/fred-client/internal/testutil"
	"github.com/Sternrassler/fred-client/pkg/cache"
	"github.com/Sternrassler/fred-client/pkg/request"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func newIntegrationClient(t *testing.T, redisClient *redis.Client, mock *testutil.MockFRED) *Client {
	t.Helper()

	builder := request.NewBuilder("integrationkey")
	builder.BaseURL = mock.BaseURL()

	cfg := DefaultConfig(cache.NewRedisStore(redisClient, cache.RedisOptions{}))
	cfg.Builder = builder

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockFRED()
	defer mock.Close()
	mock.SetResponse("series/observations", testutil.NewXMLResponse(testutil.ObservationsXML))

	c := newIntegrationClient(t, redisClient, mock)
	ctx := context.Background()
	fragment := "series/observations?series_id=GNPCA"

	// Request 1: miss, fetched from FRED and stored
	body1, err := c.Fetch(ctx, fragment, FredOnCacheMiss)
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("After request 1: requests = %d, want 1", mock.GetRequestCount())
	}

	// Request 2: served from Redis
	body2, err := c.Fetch(ctx, fragment, FredOnCacheMiss)
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("After request 2: requests = %d, want 1", mock.GetRequestCount())
	}
	if string(body1) != string(body2) {
		t.Error("cached body differs from fetched body")
	}

	// Request 3: CacheOnly sees the same bytes
	body3, err := c.Fetch(ctx, fragment, CacheOnly)
	if err != nil {
		t.Fatalf("Request 3 failed: %v", err)
	}
	if string(body3) != testutil.ObservationsXML {
		t.Error("CacheOnly body differs from upstream document")
	}

	// Stored raw under the spec key
	spec, err := request.ParseSpec(fragment)
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}
	raw, err := redisClient.Get(ctx, spec.Key()).Bytes()
	if err != nil {
		t.Fatalf("Redis lookup failed: %v", err)
	}
	if string(raw) != testutil.ObservationsXML {
		t.Error("Redis holds a different value than FRED returned")
	}
}

func TestIntegration_UpstreamErrorNotCached(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockFRED()
	defer mock.Close()
	mock.SetResponse("series", testutil.NewErrorResponse(http.StatusBadRequest, "Bad Request.  The series does not exist."))

	c := newIntegrationClient(t, redisClient, mock)
	ctx := context.Background()

	_, err := c.Fetch(ctx, "series?series_id=NOPE", FredOnly)
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) || !errors.Is(err, ErrUpstreamStatus) {
		t.Fatalf("Fetch error = %v, want ErrUpstreamStatus", err)
	}
	if resolveErr.Message != "Bad Request.  The series does not exist." {
		t.Errorf("Message = %q", resolveErr.Message)
	}

	keys, err := redisClient.Keys(ctx, "*").Result()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Redis holds %v after an upstream error, want nothing", keys)
	}
}

func TestIntegration_CacheOnlyOffline(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockFRED()
	defer mock.Close()

	c := newIntegrationClient(t, redisClient, mock)

	_, err := c.Fetch(context.Background(), "tags", CacheOnly)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Fetch error = %v, want ErrCacheMiss", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("requests = %d, want 0", mock.GetRequestCount())
	}
}
