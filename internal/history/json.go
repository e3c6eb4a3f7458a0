package history

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONLog keeps the whole history as one JSON array on disk, rewritten on
// every append through a temp file and rename.
type JSONLog struct {
	mu        sync.Mutex
	path      string
	retention time.Duration
	now       Clock
}

// NewJSONLog returns a log stored at path. The file is created lazily.
func NewJSONLog(path string, retention time.Duration, now Clock) *JSONLog {
	if now == nil {
		now = time.Now
	}
	return &JSONLog{path: path, retention: retention, now: now}
}

func (l *JSONLog) Append(_ context.Context, record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return persistenceError("append", err)
	}
	records = Prune(records, l.now(), l.retention)
	records = append([]Record{record}, records...)
	if err := l.store(records); err != nil {
		return persistenceError("append", err)
	}
	return nil
}

func (l *JSONLog) Read(context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return nil, persistenceError("read", err)
	}
	return Prune(records, l.now(), l.retention), nil
}

func (l *JSONLog) Close() error { return nil }

func (l *JSONLog) load() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (l *JSONLog) store(records []Record) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, l.path)
}
