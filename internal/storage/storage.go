package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"slidereel/internal/config"
	"slidereel/internal/logging"
	"slidereel/internal/services"
)

// ProgressFunc receives whole-number upload percentages. It is advisory and
// may be called from the uploader's goroutines.
type ProgressFunc func(percent int)

// Uploader publishes a local file under a remote key.
type Uploader interface {
	Name() string
	Upload(ctx context.Context, localPath, key string, onProgress ProgressFunc) error
	Close() error
}

// New builds the uploader selected by storage.backend.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Uploader, error) {
	if cfg == nil {
		return Noop{}, nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "storage")

	switch cfg.Storage.Backend {
	case "", config.StorageNone:
		return Noop{}, nil
	case config.StorageLocal:
		return NewLocal(cfg.Storage.LocalDir, logger), nil
	case config.StorageS3:
		return NewS3(ctx, cfg.Storage, logger)
	case config.StorageGCS:
		return NewGCS(ctx, cfg.Storage, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "storage", "select backend",
			fmt.Sprintf("unknown storage backend %q", cfg.Storage.Backend), nil)
	}
}

// Noop accepts every upload without doing anything.
type Noop struct{}

func (Noop) Name() string { return config.StorageNone }

func (Noop) Upload(context.Context, string, string, ProgressFunc) error { return nil }

func (Noop) Close() error { return nil }

// progressReader reports the share of size read so far, once per whole
// percent.
type progressReader struct {
	r        io.Reader
	size     int64
	onUpdate ProgressFunc

	mu   sync.Mutex
	read int64
	last int
}

func newProgressReader(r io.Reader, size int64, onUpdate ProgressFunc) *progressReader {
	pr := &progressReader{r: r, size: size, onUpdate: onUpdate, last: -1}
	pr.report(0)
	return pr
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.read += int64(n)
		read := p.read
		p.mu.Unlock()
		p.reportBytes(read)
	}
	return n, err
}

func (p *progressReader) reportBytes(read int64) {
	if p.size <= 0 {
		return
	}
	p.report(int(read * 100 / p.size))
}

func (p *progressReader) report(percent int) {
	if p.onUpdate == nil {
		return
	}
	percent = min(max(percent, 0), 100)
	p.mu.Lock()
	if percent <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = percent
	p.mu.Unlock()
	p.onUpdate(percent)
}

// finish forces a final 100% report, e.g. for zero-length files.
func (p *progressReader) finish() {
	p.report(100)
}

func openSized(path string) (*os.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open upload source: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("stat upload source: %w", err)
	}
	return file, info.Size(), nil
}
