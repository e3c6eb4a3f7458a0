package testsupport

import (
	"archive/zip"
	"bytes"
	"fmt"
	"testing"
)

// ArchiveEntry is one file inside a generated zip payload.
type ArchiveEntry struct {
	Name string
	Data []byte
}

// BuildArchive returns a zip payload containing the entries in the given order.
func BuildArchive(t testing.TB, entries ...ArchiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", entry.Name, err)
		}
		data := entry.Data
		if data == nil {
			data = []byte(entry.Name)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write zip entry %s: %v", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// SlideArchive builds a payload with n numbered png/mp3 pairs. Entries are
// written in reverse so tests exercise numeric ordering.
func SlideArchive(t testing.TB, n int) []byte {
	t.Helper()

	entries := make([]ArchiveEntry, 0, 2*n)
	for i := n; i >= 1; i-- {
		entries = append(entries,
			ArchiveEntry{Name: fmt.Sprintf("%d.mp3", i), Data: []byte(fmt.Sprintf("audio-%d", i))},
			ArchiveEntry{Name: fmt.Sprintf("%d.png", i), Data: []byte(fmt.Sprintf("image-%d", i))},
		)
	}
	return BuildArchive(t, entries...)
}
