//go:build integration

package cache

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestMinio starts a MinIO container and returns a store on a fresh bucket.
func setupTestMinio(t *testing.T) *MinioStore {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
	}

	minioC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start MinIO container")
	t.Cleanup(func() {
		_ = minioC.Terminate(context.Background())
	})

	endpoint, err := minioC.Endpoint(ctx, "")
	require.NoError(t, err, "failed to get container endpoint")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err, "failed to create MinIO client")

	require.NoError(t, client.MakeBucket(ctx, "fred-cache", minio.MakeBucketOptions{}))

	return NewMinioStore(client, "fred-cache", "responses/")
}

func TestIntegration_MinioStore(t *testing.T) {
	store := setupTestMinio(t)
	ctx := context.Background()
	key := "fred:series/observations:series_id=GNPCA"

	t.Run("miss before put", func(t *testing.T) {
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("round trip", func(t *testing.T) {
		body := []byte(`<observations><observation date="1929-01-01" value="1065.9"/></observations>`)
		require.NoError(t, store.Put(ctx, key, body))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, []byte("<observations/>")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "<observations/>", string(got))
	})

	t.Run("object name is prefixed hash", func(t *testing.T) {
		info, err := store.client.StatObject(ctx, "fred-cache", "responses/"+hashKey(key), minio.StatObjectOptions{})
		require.NoError(t, err)
		assert.Equal(t, "application/xml", info.ContentType)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss)
		assert.NoError(t, store.Delete(ctx, key))
	})
}

func TestIntegration_DialMinio_MissingBucket(t *testing.T) {
	_, err := DialMinio(MinioConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
