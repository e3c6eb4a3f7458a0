package archive_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidereel/internal/archive"
	"slidereel/internal/services"
	"slidereel/internal/tempfiles"
	"slidereel/internal/testsupport"
)

func newTracker(t *testing.T) *tempfiles.Tracker {
	t.Helper()
	tracker, err := tempfiles.New(filepath.Join(t.TempDir(), "job"))
	if err != nil {
		t.Fatalf("tempfiles.New: %v", err)
	}
	return tracker
}

func TestIngestOrdersNumerically(t *testing.T) {
	data := testsupport.BuildArchive(t,
		testsupport.ArchiveEntry{Name: "10.png", Data: []byte("image-10")},
		testsupport.ArchiveEntry{Name: "2.png", Data: []byte("image-2")},
		testsupport.ArchiveEntry{Name: "1.png", Data: []byte("image-1")},
		testsupport.ArchiveEntry{Name: "10.mp3", Data: []byte("audio-10")},
		testsupport.ArchiveEntry{Name: "1.mp3", Data: []byte("audio-1")},
		testsupport.ArchiveEntry{Name: "2.mp3", Data: []byte("audio-2")},
		testsupport.ArchiveEntry{Name: "readme.txt"},
	)
	tracker := newTracker(t)

	set, err := archive.Ingest(data, tracker)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if set.Len() != 3 || len(set.Audios) != 3 {
		t.Fatalf("unexpected counts: %d images, %d audios", len(set.Images), len(set.Audios))
	}
	wantImages := []string{"1.png", "2.png", "10.png"}
	wantAudios := []string{"1.mp3", "2.mp3", "10.mp3"}
	for i := range wantImages {
		if set.ImageNames[i] != wantImages[i] {
			t.Fatalf("image order = %v, want %v", set.ImageNames, wantImages)
		}
		if set.AudioNames[i] != wantAudios[i] {
			t.Fatalf("audio order = %v, want %v", set.AudioNames, wantAudios)
		}
	}

	content, err := os.ReadFile(set.Images[2])
	if err != nil {
		t.Fatalf("read extracted image: %v", err)
	}
	if string(content) != "image-10" {
		t.Fatalf("slide 3 image content = %q", content)
	}
	if !strings.HasSuffix(set.Audios[0], ".mp3") {
		t.Fatalf("expected extension preserved, got %q", set.Audios[0])
	}
	if got := len(tracker.Paths()); got != 6 {
		t.Fatalf("expected 6 tracked paths, got %d", got)
	}
}

func TestIngestRejectsMissingImages(t *testing.T) {
	data := testsupport.BuildArchive(t,
		testsupport.ArchiveEntry{Name: "1.mp3"},
		testsupport.ArchiveEntry{Name: "notes.txt"},
	)
	_, err := archive.Ingest(data, newTracker(t))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no images") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestIngestRejectsMismatchedCounts(t *testing.T) {
	data := testsupport.BuildArchive(t,
		testsupport.ArchiveEntry{Name: "1.png"},
		testsupport.ArchiveEntry{Name: "2.png"},
		testsupport.ArchiveEntry{Name: "1.mp3"},
	)
	tracker := newTracker(t)
	_, err := archive.Ingest(data, tracker)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "2 images") || !strings.Contains(err.Error(), "1 audio") {
		t.Fatalf("expected both counts in message, got %v", err)
	}
	if len(tracker.Paths()) != 3 {
		t.Fatalf("extracted files must stay tracked for cleanup, got %v", tracker.Paths())
	}
}

func TestIngestRejectsGarbage(t *testing.T) {
	_, err := archive.Ingest([]byte("definitely not a zip"), newTracker(t))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInspectDoesNotExtract(t *testing.T) {
	data := testsupport.BuildArchive(t,
		testsupport.ArchiveEntry{Name: "deck/2.JPG"},
		testsupport.ArchiveEntry{Name: "deck/1.jpeg"},
		testsupport.ArchiveEntry{Name: "deck/1.MP3"},
		testsupport.ArchiveEntry{Name: "deck/2.mp3"},
		testsupport.ArchiveEntry{Name: "__MACOSX/deck/._1.jpeg"},
		testsupport.ArchiveEntry{Name: "deck/.DS_Store"},
		testsupport.ArchiveEntry{Name: "cover.png"},
		testsupport.ArchiveEntry{Name: "cover.mp3"},
	)
	summary, err := archive.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	want := []string{"deck/1.jpeg", "deck/2.JPG", "cover.png"}
	if len(summary.ImageNames) != len(want) {
		t.Fatalf("image names = %v, want %v", summary.ImageNames, want)
	}
	for i := range want {
		if summary.ImageNames[i] != want[i] {
			t.Fatalf("image names = %v, want %v", summary.ImageNames, want)
		}
	}
	if len(summary.AudioNames) != 3 {
		t.Fatalf("audio names = %v", summary.AudioNames)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]archive.Kind{
		"1.png":   archive.KindImage,
		"1.JPG":   archive.KindImage,
		"1.mp3":   archive.KindAudio,
		"1.txt":   archive.KindOther,
		"noext":   archive.KindOther,
		"a/b.wav": archive.KindAudio,
	}
	for name, want := range cases {
		if got := archive.Classify(name); got != want {
			t.Fatalf("Classify(%q) = %v, want %v", name, got, want)
		}
	}
}
