package testsupport

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"

	"slidereel/internal/media/ffmpeg"
	"slidereel/internal/media/ffprobe"
)

// FakeFFmpeg records invocations and writes a placeholder at the output path
// (the last argument). Block, when set, is received from before each run so
// tests can hold a job in flight. FailAt makes the call with that 1-based
// number, and every call after it, return Err (or a generic exit error).
type FakeFFmpeg struct {
	mu    sync.Mutex
	calls [][]string

	Err    error
	FailAt int
	Block  chan struct{}
}

// Run implements ffmpeg.Runner.
func (f *FakeFFmpeg) Run(ctx context.Context, args []string, onProgress func(ffmpeg.Progress)) error {
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	n := len(f.calls)
	f.mu.Unlock()
	if f.FailAt > 0 && n >= f.FailAt {
		if f.Err != nil {
			return f.Err
		}
		return errors.New("exit status 1")
	}
	if f.Err != nil && f.FailAt == 0 {
		return f.Err
	}
	if onProgress != nil {
		onProgress(ffmpeg.Progress{Done: true})
	}
	return os.WriteFile(args[len(args)-1], []byte("clip"), 0o644)
}

// Calls returns a copy of every recorded argument list.
func (f *FakeFFmpeg) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

// FakeProber reports every file as a clip of Seconds with a video stream of
// Height. Zero values mean 3 seconds and 1080 lines.
type FakeProber struct {
	Seconds float64
	Height  int
}

// Inspect implements ffprobe.Prober.
func (p FakeProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	seconds := p.Seconds
	if seconds == 0 {
		seconds = 3
	}
	height := p.Height
	if height == 0 {
		height = 1080
	}
	duration := strconv.FormatFloat(seconds, 'f', -1, 64)
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{CodecType: "video", Height: height, Duration: duration},
			{CodecType: "audio", Duration: duration},
		},
		Format: ffprobe.Format{Duration: duration},
	}, nil
}
