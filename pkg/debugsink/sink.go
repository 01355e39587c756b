// Package debugsink mirrors every resolved response to a side artifact for
// inspection. Sink failures never affect the primary result; the client only
// logs them.
package debugsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// DefaultPath is the artifact name used when none is configured.
const DefaultPath = "fred-debug.xml"

// Sink receives a copy of each response body together with its spec.
type Sink interface {
	Write(spec string, body []byte) error
}

// Nop discards everything.
var Nop Sink = nopSink{}

type nopSink struct{}

func (nopSink) Write(string, []byte) error { return nil }

// FileSink overwrites a single file with the most recent response.
type FileSink struct {
	mu   sync.Mutex
	fs   billy.Filesystem
	path string
}

// NewFileSink returns a sink writing to path on the host filesystem.
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = DefaultPath
	}
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return NewFilesystemSink(osfs.New(dir), name)
}

// NewFilesystemSink returns a sink writing to path on fs.
func NewFilesystemSink(fs billy.Filesystem, path string) *FileSink {
	if fs == nil {
		panic("filesystem cannot be nil")
	}
	if path == "" {
		path = DefaultPath
	}
	return &FileSink{fs: fs, path: path}
}

// Path returns the artifact path relative to the sink's filesystem.
func (s *FileSink) Path() string {
	return s.path
}

// Write truncates the artifact and writes body to it. spec is unused by the
// file format; the artifact holds the raw bytes only.
func (s *FileSink) Write(spec string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open debug artifact for %s: %w", spec, err)
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		return fmt.Errorf("write debug artifact for %s: %w", spec, err)
	}
	return f.Close()
}
