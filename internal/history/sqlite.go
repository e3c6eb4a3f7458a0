package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteLog stores one row per record, keyed by job id.
type SQLiteLog struct {
	db        *sql.DB
	path      string
	retention time.Duration
	now       Clock
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, retention time.Duration, now Clock) (*SQLiteLog, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, persistenceError("open", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, persistenceError("open", fmt.Errorf("open sqlite db: %w", err))
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, persistenceError("open", fmt.Errorf("apply pragma %q: %w", pragma, execErr))
		}
	}

	log := &SQLiteLog{db: db, path: path, retention: retention, now: now}
	if err := log.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, persistenceError("open", err)
	}
	return log, nil
}

func (l *SQLiteLog) initSchema(ctx context.Context) error {
	var tableExists int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset history)",
			ErrSchemaMismatch, version, schemaVersion, l.path)
	}
	return nil
}

func (l *SQLiteLog) Append(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return persistenceError("append", err)
	}
	cutoff := l.now().Add(-l.retention).UnixNano()

	err = retryOnBusy(ctx, func() error {
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if l.retention > 0 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM job_history WHERE created_at < ?", cutoff); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO job_history (id, created_at, record_json) VALUES (?, ?, ?)",
			record.ID(), record.VideoGeneration.CreatedAt.UnixNano(), string(payload),
		); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return persistenceError("append", err)
	}
	return nil
}

func (l *SQLiteLog) Read(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT record_json FROM job_history ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, persistenceError("read", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, persistenceError("read", err)
		}
		var record Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, persistenceError("read", fmt.Errorf("decode record: %w", err))
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("read", err)
	}
	return Prune(records, l.now(), l.retention), nil
}

// Close closes the database.
func (l *SQLiteLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
