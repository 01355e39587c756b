package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures a connection to S3-compatible storage.
type MinioConfig struct {
	// Endpoint is the host[:port] of the server (e.g. "localhost:9000").
	Endpoint string `yaml:"endpoint"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	// Bucket must already exist.
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to every object name (e.g. "fred/").
	Prefix string `yaml:"prefix"`

	UseSSL bool `yaml:"use_ssl"`
}

// MinioStore stores raw responses as objects in a bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore creates a store on an existing minio client.
func NewMinioStore(client *minio.Client, bucket, prefix string) *MinioStore {
	if client == nil {
		panic("minio client cannot be nil")
	}
	return &MinioStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// DialMinio creates a minio client from cfg and wraps it in a store.
func DialMinio(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return NewMinioStore(client, cfg.Bucket, cfg.Prefix), nil
}

// Get retrieves the response stored under key.
// Returns ErrCacheMiss if the object doesn't exist.
func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.getError(err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing object surfaces on first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.getError(err)
	}

	CacheHits.WithLabelValues(BackendMinio).Inc()
	return data, nil
}

// Put uploads value under key.
func (s *MinioStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectName(key),
		bytes.NewReader(value), int64(len(value)),
		minio.PutObjectOptions{ContentType: "application/xml"})
	if err != nil {
		CacheErrors.WithLabelValues(BackendMinio, "put").Inc()
		return fmt.Errorf("minio put: %w", err)
	}

	CacheStoredBytes.WithLabelValues(BackendMinio).Add(float64(len(value)))
	return nil
}

// Delete removes the object stored under key. S3 semantics make removing a
// missing object a no-op.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.objectName(key), minio.RemoveObjectOptions{}); err != nil {
		CacheErrors.WithLabelValues(BackendMinio, "delete").Inc()
		return fmt.Errorf("minio remove: %w", err)
	}
	return nil
}

func (s *MinioStore) getError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		CacheMisses.WithLabelValues(BackendMinio).Inc()
		return ErrCacheMiss
	}
	CacheErrors.WithLabelValues(BackendMinio, "get").Inc()
	return fmt.Errorf("minio get: %w", err)
}

func (s *MinioStore) objectName(key string) string {
	return s.prefix + hashKey(key)
}
