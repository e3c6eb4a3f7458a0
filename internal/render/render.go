package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"slidereel/internal/config"
	"slidereel/internal/logging"
	"slidereel/internal/media/ffmpeg"
	"slidereel/internal/media/ffprobe"
	"slidereel/internal/services"
)

// Resolution is one of the two output presets.
type Resolution int

const (
	Resolution1080 Resolution = iota
	Resolution720
)

// String returns the label stored in history records.
func (r Resolution) String() string {
	if r == Resolution720 {
		return "720p"
	}
	return "1080p"
}

// Scale returns the ffmpeg scale filter dimensions.
func (r Resolution) Scale() string {
	if r == Resolution720 {
		return "1280:720"
	}
	return "1920:1080"
}

// ResolutionForHeight picks the preset matching a probed frame height.
func ResolutionForHeight(height int) Resolution {
	if height > 0 && height <= 720 {
		return Resolution720
	}
	return Resolution1080
}

// Profile holds the fixed encoding parameters for slide clips.
type Profile struct {
	PauseSeconds float64
	Preset       string
	VideoBitrate string
	AudioBitrate string
	FrameRate    string
	AudioGain    string
}

// ProfileFromConfig copies encoder settings out of the render section.
func ProfileFromConfig(cfg *config.Config) Profile {
	return Profile{
		PauseSeconds: cfg.Render.SlidePauseSeconds,
		Preset:       cfg.Render.Preset,
		VideoBitrate: cfg.Render.VideoBitrate,
		AudioBitrate: cfg.Render.AudioBitrate,
		FrameRate:    cfg.Render.FrameRate,
		AudioGain:    cfg.Render.AudioGain,
	}
}

// Renderer turns one image and one narration clip into a video clip.
type Renderer struct {
	runner  ffmpeg.Runner
	prober  ffprobe.Prober
	profile Profile
	logger  *slog.Logger
}

// New constructs a renderer.
func New(runner ffmpeg.Runner, prober ffprobe.Prober, profile Profile, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		runner:  runner,
		prober:  prober,
		profile: profile,
		logger:  logging.NewComponentLogger(logger, "render"),
	}
}

// Render encodes image held for the audio duration plus the slide pause.
// It writes exactly one file at output and leaves the inputs untouched.
func (r *Renderer) Render(ctx context.Context, image, audio, output string, res Resolution) error {
	probe, err := r.prober.Inspect(ctx, audio)
	if err != nil {
		return services.Wrap(services.ErrRender, "render", "probe audio", "Unable to read narration duration", err)
	}
	audioSeconds := probe.AudioDurationSeconds()
	if !ffprobe.ValidDuration(audioSeconds) {
		return services.Wrap(services.ErrRender, "render", "probe audio",
			fmt.Sprintf("Narration %s has no usable duration", audio), nil)
	}

	duration := audioSeconds + r.profile.PauseSeconds
	args := r.Args(image, audio, output, duration, res)
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("rendering slide",
		logging.String("image", image),
		logging.String("audio", audio),
		logging.Float64("duration_seconds", duration),
		logging.String("resolution", res.String()),
		logging.String("command", strings.Join(args, " ")),
	)

	onProgress := ffmpeg.DebugProgress(logger, "render "+filepath.Base(image), ffmpeg.Seconds(duration))
	if err := r.runner.Run(ctx, args, onProgress); err != nil {
		return services.Wrap(services.ErrRender, "render", "encode slide", "ffmpeg failed to encode slide", err)
	}
	if _, err := os.Stat(output); err != nil {
		return services.Wrap(services.ErrRender, "render", "verify output", "Encoder reported success but produced no file", err)
	}
	return nil
}

// Args builds the ffmpeg arguments for one slide.
func (r *Renderer) Args(image, audio, output string, durationSeconds float64, res Resolution) []string {
	p := r.profile
	return []string{
		"-loop", "1",
		"-t", ffmpeg.FormatSeconds(durationSeconds),
		"-i", image,
		"-i", audio,
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-ar", "48000",
		"-ac", "2",
		"-filter:a", "volume=" + p.AudioGain,
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264",
		"-r", p.FrameRate,
		"-colorspace", "bt709",
		"-b:v", p.VideoBitrate,
		"-vf", "scale=" + res.Scale(),
		"-preset", p.Preset,
		"-profile:v", "high",
		"-level", "4.2",
		"-movflags", "+faststart",
		output,
	}
}
