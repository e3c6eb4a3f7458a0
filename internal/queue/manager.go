package queue

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.opentelemetry.io/otel/metric"

	"slidereel/internal/archive"
	"slidereel/internal/config"
	"slidereel/internal/history"
	"slidereel/internal/logging"
	"slidereel/internal/notifications"
	"slidereel/internal/pipeline"
	"slidereel/internal/textutil"
)

// Runner executes one job. *pipeline.Pipeline is the production implementation.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job, onProgress pipeline.ProgressFunc) (pipeline.Result, error)
}

// Dependencies are the collaborators the manager needs.
type Dependencies struct {
	Runner   Runner
	History  history.Log
	Notifier notifications.Service
	Logger   *slog.Logger
	Clock    func() time.Time
	NewID    func() string
}

// Manager owns the pending FIFO, the current job and its live status. A
// single worker goroutine is the only writer of current and live status;
// readers receive copies.
type Manager struct {
	cfg      *config.Config
	runner   Runner
	history  history.Log
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	failures *ttlcache.Cache[string, failure]
	gauges   metric.Registration

	mu      sync.RWMutex
	pending []*Submission
	current *Submission
	live    string
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	wake    chan struct{}
}

// NewManager constructs a manager. Start must be called before jobs run.
func NewManager(cfg *config.Config, deps Dependencies) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil, nil)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = NewID
	}
	retention := history.DefaultRetention
	if cfg != nil && cfg.HistoryRetention() > 0 {
		retention = cfg.HistoryRetention()
	}
	m := &Manager{
		cfg:      cfg,
		runner:   deps.Runner,
		history:  deps.History,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "queue"),
		now:      clock,
		newID:    newID,
		failures: ttlcache.New(ttlcache.WithTTL[string, failure](retention)),
		wake:     make(chan struct{}, 1),
	}
	return m
}

// NewID returns an eight character identifier taken from a random UUID.
// Collisions are possible but not practically expected.
func NewID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// PlaceToQueue validates the archive and appends a submission to the pending
// FIFO. Invalid archives are rejected here, before any encoder runs.
func (m *Manager) PlaceToQueue(ctx context.Context, req Request) (string, error) {
	summary, err := archive.Inspect(req.Archive)
	if err != nil {
		return "", err
	}

	sub := &Submission{
		ID:             m.newID(),
		Name:           textutil.DisplayName(req.FileName),
		NotifyTo:       strings.TrimSpace(req.NotifyTo),
		Archive:        req.Archive,
		SkipUpload:     req.SkipUpload,
		LowRes:         req.LowRes,
		SuppressNotify: req.SuppressNotify,
		CreatedAt:      m.now(),
	}

	m.mu.Lock()
	m.pending = append(m.pending, sub)
	depth := len(m.pending)
	m.mu.Unlock()
	m.signal()

	logging.WithContext(ctx, m.logger).Info("job queued",
		logging.String(logging.FieldJobID, sub.ID),
		logging.String("name", sub.Name),
		logging.Int("images", len(summary.ImageNames)),
		logging.Int("audios", len(summary.AudioNames)),
		logging.Bool("skip_upload", sub.SkipUpload),
		logging.Bool("low_res", sub.LowRes),
		logging.Int("pending", depth),
	)
	recordQueued(ctx)
	return sub.ID, nil
}

// Start launches the worker. It returns an error if already running.
func (m *Manager) Start(ctx context.Context) error {
	// Registered before taking m.mu: the meter holds its own lock while
	// invoking the callback, which then reads m.pending.
	reg, err := registerQueueGauges(m)
	if err != nil {
		m.logger.Warn("queue depth gauge unavailable", logging.Error(err))
		reg = nil
	}
	m.mu.Lock()
	if m.running || m.runner == nil {
		running := m.running
		m.mu.Unlock()
		if reg != nil {
			_ = reg.Unregister()
		}
		if running {
			return errors.New("queue already running")
		}
		return errors.New("queue runner not configured")
	}
	m.gauges = reg
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.failures.Start()
	go m.work(runCtx)
	m.signal()
	return nil
}

// Stop cancels the worker context, which aborts an in-flight encode, and
// waits for the worker to exit. Pending jobs are discarded with the process.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	gauges := m.gauges
	m.running = false
	m.cancel = nil
	m.gauges = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.failures.Stop()
	if gauges != nil {
		if err := gauges.Unregister(); err != nil {
			m.logger.Warn("queue depth gauge unregister failed", logging.Error(err))
		}
	}
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
