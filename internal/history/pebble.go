package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

// PebbleLog stores records in a pebble key-value store. Keys sort by
// creation time so iteration order is chronological.
type PebbleLog struct {
	mu        sync.Mutex
	db        *pebble.DB
	retention time.Duration
	now       Clock
}

// OpenPebble opens or creates the store directory at path.
func OpenPebble(path string, retention time.Duration, now Clock) (*PebbleLog, error) {
	if now == nil {
		now = time.Now
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, persistenceError("open", fmt.Errorf("open pebble store: %w", err))
	}
	return &PebbleLog{db: db, retention: retention, now: now}, nil
}

// recordKey is the zero-padded creation time in nanoseconds plus the id.
func recordKey(r Record) []byte {
	return []byte(fmt.Sprintf("job/%020d/%s", r.VideoGeneration.CreatedAt.UnixNano(), r.ID()))
}

func (l *PebbleLog) Append(_ context.Context, record Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	payload, err := json.Marshal(record)
	if err != nil {
		return persistenceError("append", err)
	}

	batch := l.db.NewBatch()
	defer batch.Close()

	if l.retention > 0 {
		now := l.now()
		iter, err := l.db.NewIter(&pebble.IterOptions{})
		if err != nil {
			return persistenceError("append", err)
		}
		for iter.First(); iter.Valid(); iter.Next() {
			var existing Record
			if err := json.Unmarshal(iter.Value(), &existing); err != nil || existing.Expired(now, l.retention) {
				key := make([]byte, len(iter.Key()))
				copy(key, iter.Key())
				if err := batch.Delete(key, nil); err != nil {
					iter.Close()
					return persistenceError("append", err)
				}
			}
		}
		if err := iter.Close(); err != nil {
			return persistenceError("append", err)
		}
	}

	if err := batch.Set(recordKey(record), payload, nil); err != nil {
		return persistenceError("append", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return persistenceError("append", err)
	}
	return nil
}

func (l *PebbleLog) Read(context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	iter, err := l.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, persistenceError("read", err)
	}
	defer iter.Close()

	var records []Record
	for iter.Last(); iter.Valid(); iter.Prev() {
		var record Record
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return Prune(records, l.now(), l.retention), nil
}

// Close flushes and closes the store.
func (l *PebbleLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
