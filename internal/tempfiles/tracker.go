package tempfiles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Tracker hands out unique temporary paths inside one directory and removes
// every path it has recorded when Cleanup runs. A Tracker belongs to a single
// job; the mutex only protects against concurrent cleanup during shutdown.
type Tracker struct {
	mu    sync.Mutex
	dir   string
	paths []string
	seen  map[string]struct{}
}

// New creates the backing directory (if needed) and returns a tracker rooted there.
func New(dir string) (*Tracker, error) {
	if dir == "" {
		return nil, errors.New("tempfiles: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tempfiles: create %s: %w", dir, err)
	}
	return &Tracker{dir: dir, seen: make(map[string]struct{})}, nil
}

// Dir returns the directory that holds tracked files.
func (t *Tracker) Dir() string {
	return t.dir
}

// NewPath reserves a fresh path with the given extension (".png", ".mp4", ...)
// and records it for cleanup. The file itself is not created.
func (t *Tracker) NewPath(ext string) string {
	path := filepath.Join(t.dir, uuid.NewString()+ext)
	t.Track(path)
	return path
}

// Track records an externally chosen path for cleanup. Duplicate paths are ignored.
func (t *Tracker) Track(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[path]; ok {
		return
	}
	t.seen[path] = struct{}{}
	t.paths = append(t.paths, path)
}

// Forget stops tracking path, e.g. after it was moved to its final location.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[path]; !ok {
		return
	}
	delete(t.seen, path)
	for i, p := range t.paths {
		if p == path {
			t.paths = append(t.paths[:i], t.paths[i+1:]...)
			break
		}
	}
}

// Paths returns a copy of the currently tracked paths in registration order.
func (t *Tracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.paths...)
}

// Cleanup deletes every tracked path, then the tracker directory if it is
// empty. Paths that were never written are not an error. All removal
// failures are collected rather than stopping at the first.
func (t *Tracker) Cleanup() error {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.seen = make(map[string]struct{})
	t.mu.Unlock()

	var result *multierror.Error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	if err := os.Remove(t.dir); err != nil && !errors.Is(err, fs.ErrNotExist) && !isNotEmpty(err) {
		result = multierror.Append(result, fmt.Errorf("remove %s: %w", t.dir, err))
	}
	return result.ErrorOrNil()
}

func isNotEmpty(err error) bool {
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		return false
	}
	entries, readErr := os.ReadDir(pathErr.Path)
	return readErr == nil && len(entries) > 0
}
