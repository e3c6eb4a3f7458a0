package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"slidereel/internal/config"
	"slidereel/internal/deps"
	"slidereel/internal/history"
	"slidereel/internal/logging"
	"slidereel/internal/notifications"
	"slidereel/internal/preflight"
	"slidereel/internal/queue"
)

// Daemon owns the queue worker and the HTTP surface and enforces
// single-instance execution with a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	queue    *queue.Manager
	history  history.Log
	notifier notifications.Service
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	Queue        queue.Snapshot
	Dependencies []deps.Status
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies. The history log is
// closed by Close.
func New(cfg *config.Config, logger *slog.Logger, mgr *queue.Manager, hist history.Log, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || mgr == nil {
		return nil, errors.New("daemon requires config and queue manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg, logger)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "slidereel.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		queue:    mgr,
		history:  hist,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, launches the queue worker and begins
// serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another slidereel daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.queue.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start queue: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.queue.Stop()
		_ = d.lock.Unlock()
		cancel()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("slidereel daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
	)
	return nil
}

// Stop stops HTTP intake, aborts the in-flight job and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.queue.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("slidereel daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Address returns the bound API address once started.
func (d *Daemon) Address() string {
	return d.api.address()
}

// TestNotification sends a test email to the given address.
func (d *Daemon) TestNotification(ctx context.Context, to string) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.PostmarkToken) == "" {
		return false, "postmark token not configured", nil
	}
	if strings.TrimSpace(to) == "" {
		return false, "recipient address is required", nil
	}
	if err := d.notifier.TestNotification(ctx, to); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status, including preflight results.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		Queue:        d.queue.Snapshot(),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
}
