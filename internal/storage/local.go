package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slidereel/internal/config"
	"slidereel/internal/logging"
	"slidereel/internal/services"
)

// Local copies finished videos into a directory tree, typically one served
// by a web server or synced elsewhere.
type Local struct {
	root   string
	logger *slog.Logger
}

// NewLocal returns an uploader rooted at dir.
func NewLocal(dir string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Local{root: dir, logger: logger}
}

func (l *Local) Name() string { return config.StorageLocal }

func (l *Local) Close() error { return nil }

// Upload copies localPath to root/key through a temporary file and renames it
// into place once complete.
func (l *Local) Upload(ctx context.Context, localPath, key string, onProgress ProgressFunc) (err error) {
	started := time.Now()
	defer func() { recordUpload(ctx, l.Name(), err) }()

	target := filepath.Join(l.root, filepath.FromSlash(key))
	if !isWithin(l.root, target) {
		return services.Wrap(services.ErrValidation, "storage", "local upload",
			fmt.Sprintf("key %q escapes the storage directory", key), nil)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "local upload", "create destination directory", err)
	}

	src, size, err := openSized(localPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "local upload", "", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "local upload", "create staging file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	reader := newProgressReader(src, size, onProgress)
	written, err := io.Copy(tmp, contextReader{ctx: ctx, r: reader})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "local upload", "copy file", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "local upload", "finalize file", err)
	}
	reader.finish()
	recordBytes(ctx, l.Name(), written)

	l.logger.Info("stored video locally",
		logging.String("target", target),
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
