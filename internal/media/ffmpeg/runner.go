package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Progress is one block of ffmpeg's -progress output.
type Progress struct {
	OutTime time.Duration
	Speed   string
	Done    bool
}

// Runner executes one ffmpeg invocation and waits for it to exit. onProgress
// may be nil.
type Runner interface {
	Run(ctx context.Context, args []string, onProgress func(Progress)) error
}

// ExecRunner runs the ffmpeg binary as a child process.
type ExecRunner struct {
	Binary string
}

// NewExecRunner returns a runner for binary, defaulting to "ffmpeg".
func NewExecRunner(binary string) *ExecRunner {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &ExecRunner{Binary: binary}
}

// BaseArgs are prepended to every invocation: overwrite outputs, never read
// stdin, and stream machine-readable progress on stdout.
var BaseArgs = []string{"-hide_banner", "-nostdin", "-y", "-nostats", "-progress", "pipe:1"}

// Run implements Runner. A non-zero exit status is the only failure signal;
// the returned error carries the tail of stderr.
func (r *ExecRunner) Run(ctx context.Context, args []string, onProgress func(Progress)) error {
	full := append(append([]string(nil), BaseArgs...), args...)
	cmd := exec.CommandContext(ctx, r.Binary, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", r.Binary, err)
	}

	ParseProgress(stdout, onProgress)

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s exited: %w: %s", r.Binary, err, lastLines(stderr.String(), 5))
	}
	return nil
}

// ParseProgress reads key=value lines until EOF and reports one Progress per
// "progress=" line. The reader is always drained so the child never blocks
// on a full pipe.
func ParseProgress(r io.Reader, onProgress func(Progress)) {
	scanner := bufio.NewScanner(r)
	var current Progress
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// ffmpeg reports both keys in microseconds.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				current.OutTime = time.Duration(us) * time.Microsecond
			}
		case "speed":
			current.Speed = strings.TrimSpace(value)
		case "progress":
			current.Done = value == "end"
			if onProgress != nil {
				onProgress(current)
			}
		}
	}
	_, _ = io.Copy(io.Discard, r)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// FormatSeconds renders seconds the way ffmpeg filter and -t arguments expect.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
