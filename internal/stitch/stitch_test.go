package stitch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidereel/internal/media/ffmpeg"
	"slidereel/internal/media/ffprobe"
	"slidereel/internal/services"
	"slidereel/internal/tempfiles"
)

type fakeRunner struct {
	calls  [][]string
	failAt int
}

func (f *fakeRunner) Run(_ context.Context, args []string, _ func(ffmpeg.Progress)) error {
	f.calls = append(f.calls, args)
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return errors.New("exit status 1")
	}
	return os.WriteFile(args[len(args)-1], []byte("clip"), 0o644)
}

type fixedProber struct{ seconds string }

func (p fixedProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	return ffprobe.Result{Format: ffprobe.Format{Duration: p.seconds}}, nil
}

func defaultTiming() Timing {
	return Timing{CrossfadeSeconds: 1, PauseSeconds: 2, IntroTailSeconds: 1}
}

func newTracker(t *testing.T) *tempfiles.Tracker {
	t.Helper()
	tracker, err := tempfiles.New(filepath.Join(t.TempDir(), "work"))
	if err != nil {
		t.Fatalf("tempfiles.New: %v", err)
	}
	return tracker
}

func TestStitchRejectsSingleClip(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, fixedProber{"5"}, defaultTiming(), nil)

	err := s.Stitch(context.Background(), []string{"intro.mp4"}, "out.mp4", newTracker(t), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no encoder calls, got %d", len(runner.calls))
	}
}

func TestStitchFoldsAndMovesFinalOutput(t *testing.T) {
	runner := &fakeRunner{}
	tracker := newTracker(t)
	out := filepath.Join(t.TempDir(), "final.mp4")
	s := New(runner, fixedProber{"5"}, defaultTiming(), nil)

	var steps []int
	clips := []string{"intro.mp4", "a.mp4", "b.mp4", "c.mp4"}
	if err := s.Stitch(context.Background(), clips, out, tracker, func(done, total int) {
		if total != 3 {
			t.Fatalf("unexpected total %d", total)
		}
		steps = append(steps, done)
	}); err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	if len(runner.calls) != 3 {
		t.Fatalf("expected 3 folds, got %d", len(runner.calls))
	}
	if len(steps) != 3 || steps[2] != 3 {
		t.Fatalf("unexpected step callbacks %v", steps)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("final output missing: %v", err)
	}
	// Second fold consumes the first intermediate.
	if runner.calls[1][1] != runner.calls[0][len(runner.calls[0])-1] {
		t.Fatalf("fold did not chain intermediates: %v", runner.calls[1])
	}
	if err := tracker.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("cleanup removed final output: %v", err)
	}
}

func TestStitchIntroGetsTail(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, fixedProber{"5"}, defaultTiming(), nil)
	if err := s.Stitch(context.Background(), []string{"intro.mp4", "a.mp4", "b.mp4"},
		filepath.Join(t.TempDir(), "o.mp4"), newTracker(t), nil); err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	first := runner.calls[0][5]
	second := runner.calls[1][5]
	if !strings.Contains(first, "fade=t=out:st=5:") {
		t.Fatalf("intro fold should start at 5s, got %s", first)
	}
	if !strings.Contains(second, "fade=t=out:st=4:") {
		t.Fatalf("slide fold should start at 4s, got %s", second)
	}
}

func TestStitchFailureKeepsIntermediatesTracked(t *testing.T) {
	runner := &fakeRunner{failAt: 2}
	tracker := newTracker(t)
	s := New(runner, fixedProber{"5"}, defaultTiming(), nil)

	err := s.Stitch(context.Background(), []string{"intro.mp4", "a.mp4", "b.mp4"},
		filepath.Join(t.TempDir(), "o.mp4"), tracker, nil)
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if len(tracker.Paths()) != 2 {
		t.Fatalf("expected both intermediates tracked, got %v", tracker.Paths())
	}
}

func TestFilter(t *testing.T) {
	s := New(&fakeRunner{}, fixedProber{"1"}, defaultTiming(), nil)
	got := s.Filter(0.5)
	for _, want := range []string{
		"fade=t=out:st=0:d=1:alpha=1",
		"setpts=PTS-STARTPTS+0/TB[v1]",
		"tpad=stop_mode=clone:stop_duration=0.5[viddelayed]",
		"adelay=1000|1000[a1]",
		"[0:a][a1]concat=n=2:v=0:a=1[aout]",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("filter %q missing %q", got, want)
		}
	}
}
