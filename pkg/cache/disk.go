package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// EnvCacheDir is the environment variable naming the disk cache directory.
const EnvCacheDir = "FRED_CACHE"

// DiskStore stores raw responses as files on a billy filesystem.
//
// Layout: <root>/<hh>/<sha256(key)> where hh is the first two hex digits.
// Writes go through a temp file and a rename, so readers never observe a
// partially written value.
type DiskStore struct {
	// mu serializes filesystem access; billy's memfs is not goroutine-safe.
	mu sync.RWMutex
	fs billy.Filesystem
}

// NewDiskStore creates a disk store rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	root := osfs.New(dir)
	if err := root.MkdirAll(".", 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &DiskStore{fs: root}, nil
}

// NewFilesystemStore creates a disk store on an existing billy filesystem.
func NewFilesystemStore(filesystem billy.Filesystem) *DiskStore {
	if filesystem == nil {
		panic("filesystem cannot be nil")
	}
	return &DiskStore{fs: filesystem}
}

// Get retrieves the response stored under key.
// Returns ErrCacheMiss if no file exists for key.
func (d *DiskStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	f, err := d.fs.Open(d.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			CacheMisses.WithLabelValues(BackendDisk).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(BackendDisk, "get").Inc()
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		CacheErrors.WithLabelValues(BackendDisk, "get").Inc()
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	CacheHits.WithLabelValues(BackendDisk).Inc()
	return data, nil
}

// Put stores value under key, replacing any previous file.
func (d *DiskStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	err := d.put(key, value)
	d.mu.Unlock()
	if err != nil {
		CacheErrors.WithLabelValues(BackendDisk, "put").Inc()
		return err
	}

	CacheStoredBytes.WithLabelValues(BackendDisk).Add(float64(len(value)))
	return nil
}

func (d *DiskStore) put(key string, value []byte) error {
	target := d.path(key)
	dir := d.fs.Join(shard(key))
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create shard directory: %w", err)
	}

	tmp, err := d.fs.TempFile(dir, ".put-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := d.fs.Rename(tmpName, target); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Delete removes the entry stored under key. Deleting a missing key is not an error.
func (d *DiskStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fs.Remove(d.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		CacheErrors.WithLabelValues(BackendDisk, "delete").Inc()
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// path returns the file path for key relative to the store root.
func (d *DiskStore) path(key string) string {
	return d.fs.Join(shard(key), hashKey(key))
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func shard(key string) string {
	return hashKey(key)[:2]
}
