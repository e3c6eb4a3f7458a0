package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"slidereel/internal/media/ffmpeg"
	"slidereel/internal/media/ffprobe"
	"slidereel/internal/services"
)

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, args []string, _ func(ffmpeg.Progress)) error {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(args[len(args)-1], []byte("clip"), 0o644)
}

type fakeProber struct {
	duration string
	err      error
}

func (f fakeProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	if f.err != nil {
		return ffprobe.Result{}, f.err
	}
	return ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "audio", Duration: f.duration}},
		Format:  ffprobe.Format{Duration: f.duration},
	}, nil
}

func testProfile() Profile {
	return Profile{
		PauseSeconds: 2,
		Preset:       "fast",
		VideoBitrate: "15705k",
		AudioBitrate: "317k",
		FrameRate:    "23.98",
		AudioGain:    "2.4",
	}
}

func TestRenderAddsPauseToAudioDuration(t *testing.T) {
	out := filepath.Join(t.TempDir(), "slide.mp4")
	runner := &fakeRunner{}
	r := New(runner, fakeProber{duration: "3.5"}, testProfile(), nil)

	if err := r.Render(context.Background(), "1.jpg", "1.mp3", out, Resolution720); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one encode, got %d", len(runner.calls))
	}
	args := runner.calls[0]
	idx := slices.Index(args, "-t")
	if idx < 0 || args[idx+1] != "5.5" {
		t.Fatalf("expected -t 5.5, got %v", args)
	}
	if !slices.Contains(args, "scale=1280:720") {
		t.Fatalf("expected 720p scale in %v", args)
	}
	if !slices.Contains(args, "volume=2.4") {
		t.Fatalf("expected audio gain in %v", args)
	}
	if args[len(args)-1] != out {
		t.Fatalf("expected output last, got %q", args[len(args)-1])
	}
}

func TestRenderFailsWithoutDuration(t *testing.T) {
	runner := &fakeRunner{}
	r := New(runner, fakeProber{duration: "N/A"}, testProfile(), nil)

	err := r.Render(context.Background(), "1.jpg", "1.mp3", filepath.Join(t.TempDir(), "x.mp4"), Resolution1080)
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("encoder must not run without a duration")
	}
}

func TestRenderWrapsEncoderFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	r := New(runner, fakeProber{duration: "1"}, testProfile(), nil)

	err := r.Render(context.Background(), "1.jpg", "1.mp3", filepath.Join(t.TempDir(), "x.mp4"), Resolution1080)
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
}

func TestResolutionForHeight(t *testing.T) {
	cases := []struct {
		height int
		want   Resolution
	}{
		{0, Resolution1080},
		{480, Resolution720},
		{720, Resolution720},
		{1080, Resolution1080},
	}
	for _, tc := range cases {
		if got := ResolutionForHeight(tc.height); got != tc.want {
			t.Fatalf("ResolutionForHeight(%d) = %v, want %v", tc.height, got, tc.want)
		}
	}
}
