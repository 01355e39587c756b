package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
)

func TestNewDiskStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	if store == nil {
		t.Fatal("NewDiskStore returned nil")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache directory not created: %v", err)
	}
}

func TestNewDiskStore_EmptyDir(t *testing.T) {
	if _, err := NewDiskStore(""); err == nil {
		t.Error("NewDiskStore(\"\") should fail")
	}
}

func TestDiskStore_PutAndGet(t *testing.T) {
	tests := []struct {
		name  string
		store func(t *testing.T) *DiskStore
	}{
		{
			name: "os filesystem",
			store: func(t *testing.T) *DiskStore {
				s, err := NewDiskStore(t.TempDir())
				if err != nil {
					t.Fatalf("NewDiskStore() error = %v", err)
				}
				return s
			},
		},
		{
			name: "memory filesystem",
			store: func(t *testing.T) *DiskStore {
				return NewFilesystemStore(memfs.New())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store(t)
			ctx := context.Background()
			key := "fred:series/observations:series_id=GNPCA"
			body := []byte(`<observations count="0"></observations>`)

			if _, err := store.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
				t.Fatalf("Get() before Put error = %v, want ErrCacheMiss", err)
			}

			if err := store.Put(ctx, key, body); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := store.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != string(body) {
				t.Errorf("Get() = %s, want %s", got, body)
			}

			// Overwrite replaces the value.
			if err := store.Put(ctx, key, []byte("v2")); err != nil {
				t.Fatalf("second Put() error = %v", err)
			}
			got, _ = store.Get(ctx, key)
			if string(got) != "v2" {
				t.Errorf("Get() after overwrite = %s, want v2", got)
			}

			if err := store.Delete(ctx, key); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := store.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
				t.Errorf("Get() after Delete error = %v, want ErrCacheMiss", err)
			}
			if err := store.Delete(ctx, key); err != nil {
				t.Errorf("Delete() of missing key error = %v", err)
			}
		})
	}
}

func TestDiskStore_Layout(t *testing.T) {
	fs := memfs.New()
	store := NewFilesystemStore(fs)
	key := "fred:tags"

	if err := store.Put(context.Background(), key, []byte("<tags/>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	hash := hashKey(key)
	if _, err := fs.Stat(fs.Join(hash[:2], hash)); err != nil {
		t.Errorf("expected file at %s/%s: %v", hash[:2], hash, err)
	}

	entries, err := fs.ReadDir(hash[:2])
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("shard holds %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestDiskStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	if err := first.Put(ctx, "fred:tags", []byte("<tags/>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	second, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	got, err := second.Get(ctx, "fred:tags")
	if err != nil {
		t.Fatalf("Get() from reopened store error = %v", err)
	}
	if string(got) != "<tags/>" {
		t.Errorf("Get() = %s, want <tags/>", got)
	}
}

func TestDiskStore_ConcurrentPut(t *testing.T) {
	store := NewFilesystemStore(memfs.New())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Put(ctx, "fred:tags", []byte("<tags/>")); err != nil {
				t.Errorf("Put() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "fred:tags")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "<tags/>" {
		t.Errorf("Get() = %s, want <tags/>", got)
	}
}

func TestDiskStore_CancelledContext(t *testing.T) {
	store := NewFilesystemStore(memfs.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, "fred:tags", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
	if _, err := store.Get(ctx, "fred:tags"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}
