package pipeline

import (
	"fmt"
	"sync"
)

// Phase identifies which part of a run an Update describes.
type Phase int

const (
	PhaseGenerating Phase = iota
	PhaseProcessed
	PhaseUploadFull
	PhaseUploadShort
	PhaseUploaded
)

func (p Phase) String() string {
	switch p {
	case PhaseGenerating:
		return "generating"
	case PhaseProcessed:
		return "processed"
	case PhaseUploadFull:
		return "upload_full"
	case PhaseUploadShort:
		return "upload_short"
	case PhaseUploaded:
		return "uploaded"
	default:
		return "unknown"
	}
}

// Update is one progress report from a run.
type Update struct {
	Phase   Phase
	Percent int
}

// Status renders the live status text clients poll for.
func (u Update) Status() string {
	switch u.Phase {
	case PhaseGenerating:
		return fmt.Sprintf("Generation progress: %d%%", u.Percent)
	case PhaseProcessed:
		return "Video processing completed. Starting upload..."
	case PhaseUploadFull:
		return fmt.Sprintf("Upload full progress: %d%%", u.Percent)
	case PhaseUploadShort:
		return fmt.Sprintf("Upload short progress: %d%%", u.Percent)
	case PhaseUploaded:
		return "Upload completed."
	default:
		return ""
	}
}

// ProgressFunc receives updates in order. Within a phase percentages never
// decrease.
type ProgressFunc func(Update)

// reporter enforces ordering: updates for an earlier phase, or a lower
// percentage within the same phase, are dropped. Upload callbacks may arrive
// from SDK goroutines, hence the mutex.
type reporter struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last Update
	sent bool
}

func newReporter(fn ProgressFunc) *reporter {
	return &reporter{fn: fn}
}

func (r *reporter) report(phase Phase, percent int) {
	if r == nil || r.fn == nil {
		return
	}
	percent = min(max(percent, 0), 100)
	r.mu.Lock()
	if r.sent {
		if phase < r.last.Phase || (phase == r.last.Phase && percent <= r.last.Percent) {
			r.mu.Unlock()
			return
		}
	}
	update := Update{Phase: phase, Percent: percent}
	r.last = update
	r.sent = true
	r.mu.Unlock()
	r.fn(update)
}

// generation maps render and stitch steps onto 0-99%: renders fill the first
// half, crossfade folds the second.
type generation struct {
	slides int
	folds  int
}

func (g generation) renderPercent(done int) int {
	if g.slides <= 0 {
		return 0
	}
	return done * 50 / g.slides
}

func (g generation) stitchPercent(done int) int {
	if g.folds <= 0 {
		return 99
	}
	return 50 + done*49/g.folds
}
