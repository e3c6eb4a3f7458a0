package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"slidereel/internal/archive"
	"slidereel/internal/config"
	"slidereel/internal/logging"
	"slidereel/internal/media/ffmpeg"
	"slidereel/internal/media/ffprobe"
	"slidereel/internal/render"
	"slidereel/internal/services"
	"slidereel/internal/stitch"
	"slidereel/internal/storage"
	"slidereel/internal/tempfiles"
	"slidereel/internal/textutil"
)

// Job is the immutable input of one run.
type Job struct {
	ID         string
	Name       string
	Archive    []byte
	SkipUpload bool
	LowRes     bool
	CreatedAt  time.Time
}

// Result describes a successful run.
type Result struct {
	JobID       string
	FullPath    string
	ShortPath   string
	FullKey     string
	ShortKey    string
	ImageNames  []string
	AudioNames  []string
	Elapsed     time.Duration
	Resolution  render.Resolution
	Uploaded    bool
	UploadError string

	// LocalRemoved reports that FullPath and ShortPath were deleted after a
	// successful upload.
	LocalRemoved bool
}

// Dependencies are the collaborators a Pipeline drives.
type Dependencies struct {
	Runner   ffmpeg.Runner
	Prober   ffprobe.Prober
	Uploader storage.Uploader
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Pipeline turns an archive into full and short videos.
type Pipeline struct {
	cfg      *config.Config
	prober   ffprobe.Prober
	renderer *render.Renderer
	stitcher *stitch.Stitcher
	uploader storage.Uploader
	logger   *slog.Logger
	now      func() time.Time
}

// New wires a pipeline. Nil runner and prober fall back to the configured
// ffmpeg and ffprobe binaries; a nil uploader disables uploads.
func New(cfg *config.Config, deps Dependencies) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := deps.Runner
	if runner == nil {
		runner = ffmpeg.NewExecRunner(cfg.FFmpegBinary())
	}
	prober := deps.Prober
	if prober == nil {
		prober = ffprobe.Inspector{Binary: cfg.FFprobeBinary()}
	}
	uploader := deps.Uploader
	if uploader == nil {
		uploader = storage.Noop{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		cfg:      cfg,
		prober:   prober,
		renderer: render.New(runner, prober, render.ProfileFromConfig(cfg), logger),
		stitcher: stitch.New(runner, prober, stitch.TimingFromConfig(cfg), logger),
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		now:      clock,
	}
}

// Run executes every stage for job. Temporary files are removed before Run
// returns, whatever the outcome. Upload failures do not fail the run; they
// are reported on the Result.
func (p *Pipeline) Run(ctx context.Context, job Job, onProgress ProgressFunc) (Result, error) {
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, p.logger)
	started := p.now()
	progress := newReporter(onProgress)

	tracker, err := tempfiles.New(filepath.Join(p.cfg.Paths.WorkDir, textutil.SanitizeToken(job.ID)))
	if err != nil {
		return Result{}, p.annotate(job, services.Wrap(services.ErrConfiguration, "pipeline", "prepare work dir", "", err))
	}
	defer func() {
		if cleanupErr := tracker.Cleanup(); cleanupErr != nil {
			logging.WarnWithContext(logger, "temporary file cleanup incomplete", "cleanup_failed",
				logging.Error(cleanupErr),
				logging.String(logging.FieldErrorHint, "remove leftover files under "+tracker.Dir()),
				logging.String(logging.FieldImpact, "disk space is not reclaimed"),
			)
		}
	}()

	result, err := p.run(ctx, logger, job, tracker, progress)
	if err != nil {
		return Result{}, p.annotate(job, err)
	}
	result.Elapsed = p.now().Sub(started)
	logger.Info("pipeline completed",
		logging.String("full", result.FullPath),
		logging.String("short", result.ShortPath),
		logging.Int("slides", len(result.ImageNames)),
		logging.String("resolution", result.Resolution.String()),
		logging.Bool("uploaded", result.Uploaded),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, job Job, tracker *tempfiles.Tracker, progress *reporter) (Result, error) {
	media, err := archive.Ingest(job.Archive, tracker)
	if err != nil {
		return Result{}, err
	}
	logger.Info("archive ingested",
		logging.Int("images", len(media.Images)),
		logging.Int("audios", len(media.Audios)),
		logging.Bool("skip_upload", job.SkipUpload),
	)

	intro, res, err := p.selectIntro(ctx, job.LowRes)
	if err != nil {
		return Result{}, err
	}

	shortCount := min(max(p.cfg.Render.ShortSlideCount, 1), media.Len())
	gen := generation{slides: media.Len(), folds: media.Len() + shortCount}
	sampler := logging.NewProgressSampler(10)

	clips := make([]string, 0, media.Len())
	for i := range media.Images {
		pct := gen.renderPercent(i)
		progress.report(PhaseGenerating, pct)
		if sampler.ShouldLog(float64(pct), "render") {
			logger.Debug("generation progress", logging.Int("percent", pct), logging.Int("slide", i+1))
		}
		clip := tracker.NewPath(".mp4")
		if err := p.renderer.Render(ctx, media.Images[i], media.Audios[i], clip, res); err != nil {
			return Result{}, fmt.Errorf("slide %d: %w", i+1, err)
		}
		clips = append(clips, clip)
	}

	fullName, shortName := OutputNames(p.now(), job.Name)
	fullPath := filepath.Join(p.cfg.Paths.OutputDir, fullName)
	shortPath := filepath.Join(p.cfg.Paths.OutputDir, shortName)
	// Outputs stay tracked until the run succeeds so a failure leaves nothing
	// behind in the output directory.
	tracker.Track(fullPath)
	tracker.Track(shortPath)

	foldsDone := 0
	onFold := func(int, int) {
		foldsDone++
		pct := gen.stitchPercent(foldsDone)
		progress.report(PhaseGenerating, pct)
		if sampler.ShouldLog(float64(pct), "stitch") {
			logger.Debug("generation progress", logging.Int("percent", pct), logging.Int("fold", foldsDone))
		}
	}
	full := append([]string{intro}, clips...)
	if err := p.stitcher.Stitch(ctx, full, fullPath, tracker, onFold); err != nil {
		return Result{}, fmt.Errorf("full video: %w", err)
	}
	short := append([]string{intro}, clips[:shortCount]...)
	if err := p.stitcher.Stitch(ctx, short, shortPath, tracker, onFold); err != nil {
		return Result{}, fmt.Errorf("short video: %w", err)
	}
	progress.report(PhaseProcessed, 0)

	result := Result{
		JobID:      job.ID,
		FullPath:   fullPath,
		ShortPath:  shortPath,
		FullKey:    p.cfg.RemoteKey(fullName),
		ShortKey:   p.cfg.RemoteKey(shortName),
		ImageNames: media.ImageNames,
		AudioNames: media.AudioNames,
		Resolution: res,
	}
	p.upload(ctx, logger, job, &result, progress)
	progress.report(PhaseUploaded, 0)

	if result.Uploaded && !p.cfg.Storage.KeepLocal {
		result.LocalRemoved = true
		logger.Debug("local outputs scheduled for removal",
			logging.String("full", fullPath),
			logging.String("short", shortPath),
		)
		return result, nil
	}
	tracker.Forget(fullPath)
	tracker.Forget(shortPath)
	return result, nil
}

func (p *Pipeline) selectIntro(ctx context.Context, lowRes bool) (string, render.Resolution, error) {
	if lowRes {
		return p.cfg.Assets.Intro720, render.Resolution720, checkAsset(p.cfg.Assets.Intro720)
	}
	intro := p.cfg.Assets.Intro1080
	if err := checkAsset(intro); err != nil {
		return "", 0, err
	}
	probe, err := p.prober.Inspect(ctx, intro)
	if err != nil {
		return "", 0, services.Wrap(services.ErrRender, "pipeline", "probe intro", "Unable to read intro resolution", err)
	}
	return intro, render.ResolutionForHeight(probe.VideoHeight()), nil
}

func checkAsset(path string) error {
	if path == "" {
		return services.Wrap(services.ErrConfiguration, "pipeline", "locate intro", "intro asset path is not configured", nil)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, "pipeline", "locate intro", "intro asset "+path+" does not exist", nil)
		}
		return services.Wrap(services.ErrConfiguration, "pipeline", "locate intro", "", err)
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context, logger *slog.Logger, job Job, result *Result, progress *reporter) {
	if job.SkipUpload || p.uploader.Name() == config.StorageNone {
		logger.Info("upload skipped",
			logging.Bool("skip_upload", job.SkipUpload),
			logging.String("backend", p.uploader.Name()),
		)
		return
	}
	uploadCtx := services.WithStage(ctx, "upload")

	steps := []struct {
		phase Phase
		path  string
		key   string
	}{
		{PhaseUploadFull, result.FullPath, result.FullKey},
		{PhaseUploadShort, result.ShortPath, result.ShortKey},
	}
	for _, step := range steps {
		phase := step.phase
		progress.report(phase, 0)
		err := p.uploader.Upload(uploadCtx, step.path, step.key, func(pct int) {
			progress.report(phase, pct)
		})
		if err != nil {
			result.UploadError = err.Error()
			logging.WarnWithContext(logger, "upload failed; videos remain local", "upload_failed",
				logging.String("key", step.key),
				logging.String("backend", p.uploader.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check storage credentials and bucket permissions"),
				logging.String(logging.FieldImpact, "email links will not resolve"),
			)
			return
		}
	}
	result.Uploaded = true
}

func (p *Pipeline) annotate(job Job, err error) error {
	return fmt.Errorf("job %s: %w", job.ID, err)
}
