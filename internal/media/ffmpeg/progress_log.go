package ffmpeg

import (
	"context"
	"log/slog"
	"time"

	"slidereel/internal/logging"
)

// DebugProgress returns a progress callback that writes sampled debug lines
// for one invocation. expected is the anticipated output duration; when it is
// not positive only the first and final blocks are logged.
func DebugProgress(logger *slog.Logger, label string, expected time.Duration) func(Progress) {
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return nil
	}
	sampler := logging.NewProgressSampler(25)
	return func(p Progress) {
		percent := -1.0
		if expected > 0 {
			percent = min(float64(p.OutTime)/float64(expected)*100, 100)
		}
		if p.Done {
			percent = 100
		}
		if !sampler.ShouldLog(percent, label) {
			return
		}
		logger.Debug("ffmpeg progress",
			logging.String("step", label),
			logging.Duration("out_time", p.OutTime),
			logging.String("speed", p.Speed),
			logging.Bool("done", p.Done),
		)
	}
}

// Seconds converts a fractional second count to a Duration.
func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
