package stitch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"slidereel/internal/config"
	"slidereel/internal/fileutil"
	"slidereel/internal/logging"
	"slidereel/internal/media/ffmpeg"
	"slidereel/internal/media/ffprobe"
	"slidereel/internal/services"
	"slidereel/internal/tempfiles"
)

// Timing controls transition placement.
type Timing struct {
	CrossfadeSeconds float64
	PauseSeconds     float64
	IntroTailSeconds float64
}

// TimingFromConfig reads transition timing from the render section.
func TimingFromConfig(cfg *config.Config) Timing {
	return Timing{
		CrossfadeSeconds: cfg.Render.CrossfadeSeconds,
		PauseSeconds:     cfg.Render.SlidePauseSeconds,
		IntroTailSeconds: cfg.Render.IntroTailSeconds,
	}
}

// Hold is the extra still time added after each transition.
func (t Timing) Hold() float64 {
	return math.Max(0, t.PauseSeconds-t.CrossfadeSeconds)
}

// StepFunc is called after each completed fold with the number of folds done.
type StepFunc func(done, total int)

// Stitcher folds clips together with crossfade transitions.
type Stitcher struct {
	runner ffmpeg.Runner
	prober ffprobe.Prober
	timing Timing
	logger *slog.Logger
}

// New constructs a stitcher.
func New(runner ffmpeg.Runner, prober ffprobe.Prober, timing Timing, logger *slog.Logger) *Stitcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stitcher{
		runner: runner,
		prober: prober,
		timing: timing,
		logger: logging.NewComponentLogger(logger, "stitch"),
	}
}

// Stitch crossfades clips left to right and moves the last intermediate to
// output. clips[0] is the intro. Intermediates are created through tracker
// and stay tracked if a step fails.
func (s *Stitcher) Stitch(ctx context.Context, clips []string, output string, tracker *tempfiles.Tracker, onStep StepFunc) error {
	if len(clips) < 2 {
		return services.Wrap(services.ErrValidation, "stitch", "check inputs",
			fmt.Sprintf("At least two clips are required for a crossfade, got %d", len(clips)), nil)
	}
	logger := logging.WithContext(ctx, s.logger)
	total := len(clips) - 1
	running := clips[0]

	for i := 1; i < len(clips); i++ {
		probe, err := s.prober.Inspect(ctx, running)
		if err != nil {
			return services.Wrap(services.ErrRender, "stitch", "probe clip", "Unable to read clip duration", err)
		}
		duration := probe.DurationSeconds()
		if !ffprobe.ValidDuration(duration) {
			return services.Wrap(services.ErrRender, "stitch", "probe clip",
				fmt.Sprintf("Clip %s has no usable duration", running), nil)
		}
		if i == 1 {
			duration += s.timing.IntroTailSeconds
		}

		next := tracker.NewPath(".mp4")
		args := []string{
			"-i", running,
			"-i", clips[i],
			"-filter_complex", s.Filter(duration),
			"-map", "[viddelayed]",
			"-map", "[aout]",
			"-c:v", "libx264",
			"-c:a", "aac",
			next,
		}
		logger.Debug("crossfade step",
			logging.Int("step", i),
			logging.Int("total", total),
			logging.Float64("running_seconds", duration),
			logging.String("command", strings.Join(args, " ")),
		)
		// The output runs at least as long as the running clip.
		onProgress := ffmpeg.DebugProgress(logger, fmt.Sprintf("crossfade %d/%d", i, total), ffmpeg.Seconds(duration))
		if err := s.runner.Run(ctx, args, onProgress); err != nil {
			return services.Wrap(services.ErrRender, "stitch", "crossfade",
				fmt.Sprintf("ffmpeg failed on crossfade %d/%d", i, total), err)
		}
		running = next
		if onStep != nil {
			onStep(i, total)
		}
	}

	if err := fileutil.MoveFile(running, output); err != nil {
		return services.Wrap(services.ErrRender, "stitch", "finalize", "Unable to move stitched video into place", err)
	}
	tracker.Forget(running)
	logger.Info("stitched video written",
		logging.String("output", output),
		logging.Int("clips", len(clips)),
	)
	return nil
}

// Filter returns the filter graph crossfading a running clip of the given
// duration into the next clip.
func (s *Stitcher) Filter(runningSeconds float64) string {
	cf := s.timing.CrossfadeSeconds
	start := math.Max(0, runningSeconds-cf)
	hold := s.timing.Hold()
	holdMS := strconv.FormatInt(int64(math.Round(hold*1000)), 10)
	sec := ffmpeg.FormatSeconds

	return strings.Join([]string{
		"[0:v]format=pix_fmts=yuva420p,fade=t=out:st=" + sec(start) + ":d=" + sec(cf) + ":alpha=1,setpts=PTS-STARTPTS[v0]",
		"[1:v]format=pix_fmts=yuva420p,fade=t=in:st=0:d=" + sec(cf) + ":alpha=1,setpts=PTS-STARTPTS+" + sec(start) + "/TB[v1]",
		"[v0][v1]overlay,format=yuv420p[vid]",
		"[vid]tpad=stop_mode=clone:stop_duration=" + sec(hold/2) + "[viddelayed]",
		"[1:a]adelay=" + holdMS + "|" + holdMS + "[a1]",
		"[0:a][a1]concat=n=2:v=0:a=1[aout]",
	}, ";")
}
