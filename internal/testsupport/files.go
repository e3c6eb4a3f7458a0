package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WritePlaceholder creates path with size bytes of filler. Intro assets only
// need to exist and be non-empty; their content is never decoded because the
// encoder and prober are faked.
func WritePlaceholder(t testing.TB, path string, size int) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
