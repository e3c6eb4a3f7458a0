package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Height: 720},
			{CodecType: "audio", Duration: "4.250000"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "6.25",
			Size:     "1000",
		},
	}
	if result.StreamCount("video") != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.StreamCount("video"))
	}
	if result.StreamCount("audio") != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.StreamCount("audio"))
	}
	if result.DurationSeconds() != 6.25 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.AudioDurationSeconds() != 4.25 {
		t.Fatalf("unexpected audio duration: %v", result.AudioDurationSeconds())
	}
	if result.VideoHeight() != 720 {
		t.Fatalf("unexpected height: %d", result.VideoHeight())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestAudioDurationFallsBackToFormat(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "N/A"}},
		Format:  Format{Duration: "3.5"},
	}
	if got := result.AudioDurationSeconds(); got != 3.5 {
		t.Fatalf("expected container fallback, got %v", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if ValidDuration(result.DurationSeconds()) {
		t.Fatal("NaN must not be a valid duration")
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.VideoHeight() != 0 {
		t.Fatalf("expected no video height, got %d", result.VideoHeight())
	}
}

func TestInspectUsesBinary(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe-stub")
	script := "#!/bin/sh\nprintf '%s' '{\"streams\":[{\"codec_type\":\"audio\",\"duration\":\"2.5\"}],\"format\":{\"duration\":\"2.5\"}}'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspector{Binary: stub}.Inspect(context.Background(), filepath.Join(dir, "1.mp3"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.AudioDurationSeconds() != 2.5 {
		t.Fatalf("unexpected duration %v", result.AudioDurationSeconds())
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInspectReportsFailure(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe-fail")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'moov atom not found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), stub, "broken.mp4"); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
}
