package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"slidereel/internal/config"
	"slidereel/internal/daemon"
	"slidereel/internal/history"
	"slidereel/internal/logging"
	"slidereel/internal/media/ffmpeg"
	"slidereel/internal/media/ffprobe"
	"slidereel/internal/notifications"
	"slidereel/internal/pipeline"
	"slidereel/internal/preflight"
	"slidereel/internal/queue"
	"slidereel/internal/storage"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Diagnostic  bool
}

// Run starts the slidereel daemon and blocks until SIGINT/SIGTERM or until
// cmdCtx is cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("slidereel-%s.log", runID))
	errorLogPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("slidereel-%s.error.log", runID))

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:        level,
		Format:       cfg.Logging.Format,
		OutputPaths:  []string{"stdout", logPath},
		ErrorLogPath: errorLogPath,
		Development:  opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if opts.Diagnostic {
		logger = withDiagnosticLog(logger, cfg, runID)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update slidereel.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "slidereel-*.log", Keep: []string{logPath, errorLogPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: "*.log"},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, "slidereel.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logDependencySnapshot(signalCtx, logger, cfg)

	uploader, err := storage.New(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("init storage", logging.Error(err))
		return err
	}
	defer uploader.Close()

	hist, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history log", logging.Error(err))
		return err
	}

	notifier := notifications.NewService(cfg, logger)
	pipe := pipeline.New(cfg, pipeline.Dependencies{
		Runner:   ffmpeg.NewExecRunner(cfg.FFmpegBinary()),
		Prober:   ffprobe.Inspector{Binary: cfg.FFprobeBinary()},
		Uploader: uploader,
		Logger:   logger,
	})
	mgr := queue.NewManager(cfg, queue.Dependencies{
		Runner:   pipe,
		History:  hist,
		Notifier: notifier,
		Logger:   logger,
	})

	d, err := daemon.New(cfg, logger, mgr, hist, notifier)
	if err != nil {
		_ = hist.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check api_bind and that no other daemon holds the lock"),
			logging.String(logging.FieldImpact, "no submissions will be accepted"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("slidereel daemon shutting down")
	return nil
}

func withDiagnosticLog(logger *slog.Logger, cfg *config.Config, runID string) *slog.Logger {
	sessionID := uuid.NewString()
	debugDir := filepath.Join(cfg.Paths.LogDir, "debug")
	if err := os.MkdirAll(debugDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to create debug log directory: %v\n", err)
		return logger
	}
	debugLogPath := filepath.Join(debugDir, fmt.Sprintf("slidereel-%s.log", runID))
	debugLogger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{debugLogPath},
		Development: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", err)
		return logger
	}
	logger = logging.TeeLogger(logger, debugLogger.Handler()).With(logging.String("session_id", sessionID))
	logger.Info("diagnostic mode enabled",
		logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
		logging.String("debug_log_path", debugLogPath),
	)
	return logger
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "slidereel.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	attrs := []any{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("storage_backend", cfg.Storage.Backend),
		logging.String("history_backend", cfg.History.Backend),
		logging.Bool("postmark_token_present", strings.TrimSpace(cfg.Notifications.PostmarkToken) != ""),
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		key := strings.ToLower(dep.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", dep.Available),
			logging.String(key+"_binary", dep.Command),
		)
	}
	logger.Info("dependency snapshot", attrs...)

	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "fix the configuration before submitting jobs"),
			logging.String(logging.FieldImpact, "jobs may fail until resolved"),
		)
	}
}
