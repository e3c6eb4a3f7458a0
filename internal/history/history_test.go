package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"slidereel/internal/config"
	"slidereel/internal/services"
)

type backendFactory func(t *testing.T, now Clock) Log

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"json": func(t *testing.T, now Clock) Log {
			return NewJSONLog(filepath.Join(t.TempDir(), "history.json"), DefaultRetention, now)
		},
		"sqlite": func(t *testing.T, now Clock) Log {
			log, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"), DefaultRetention, now)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return log
		},
		"pebble": func(t *testing.T, now Clock) Log {
			log, err := OpenPebble(filepath.Join(t.TempDir(), "history.pebble"), DefaultRetention, now)
			if err != nil {
				t.Fatalf("OpenPebble: %v", err)
			}
			return log
		},
	}
}

func record(id string, created time.Time, images int) Record {
	r := Record{
		VideoGeneration: Submission{ID: id, Name: "course " + id, To: "x@example.com", CreatedAt: created},
		FullVideoPath:   "videos/full_" + id + ".mp4",
		ShortVideoPath:  "videos/short_" + id + ".mp4",
		TotalTime:       12.5,
		Uploaded:        true,
		Resolution:      "1080p",
	}
	for i := 0; i < images; i++ {
		r.Images = append(r.Images, "img")
		r.Audios = append(r.Audios, "aud")
	}
	return r
}

func TestAppendAndReadNewestFirst(t *testing.T) {
	base := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			now := base
			log := factory(t, func() time.Time { return now })
			defer log.Close()
			ctx := context.Background()

			if got, err := log.Read(ctx); err != nil || len(got) != 0 {
				t.Fatalf("empty read: %v %v", got, err)
			}
			if err := log.Append(ctx, record("a", base.Add(-2*time.Hour), 3)); err != nil {
				t.Fatalf("Append a: %v", err)
			}
			if err := log.Append(ctx, record("b", base.Add(-time.Hour), 1)); err != nil {
				t.Fatalf("Append b: %v", err)
			}

			got, err := log.Read(ctx)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(got) != 2 || got[0].ID() != "b" || got[1].ID() != "a" {
				t.Fatalf("unexpected order: %+v", got)
			}
			if len(got[1].Images) != 3 || got[1].VideoGeneration.Name != "course a" {
				t.Fatalf("record not round-tripped: %+v", got[1])
			}
		})
	}
}

func TestAppendDropsExpiredRecords(t *testing.T) {
	base := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			now := base
			log := factory(t, func() time.Time { return now })
			defer log.Close()
			ctx := context.Background()

			if err := log.Append(ctx, record("old", base, 1)); err != nil {
				t.Fatalf("Append old: %v", err)
			}
			if err := log.Append(ctx, record("edge", base.Add(time.Hour), 1)); err != nil {
				t.Fatalf("Append edge: %v", err)
			}

			now = base.Add(73 * time.Hour)
			if err := log.Append(ctx, record("new", now, 1)); err != nil {
				t.Fatalf("Append new: %v", err)
			}
			got, err := log.Read(ctx)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if _, ok := Find(got, "old"); ok {
				t.Fatalf("expired record still present: %+v", got)
			}
			if _, ok := Find(got, "edge"); !ok {
				t.Fatalf("record exactly at 72h must be kept: %+v", got)
			}
			if len(got) != 2 || got[0].ID() != "new" {
				t.Fatalf("unexpected records %+v", got)
			}
		})
	}
}

func TestReadFiltersExpiredWithoutWrite(t *testing.T) {
	base := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)
	now := base
	path := filepath.Join(t.TempDir(), "history.json")
	log := NewJSONLog(path, DefaultRetention, func() time.Time { return now })
	if err := log.Append(context.Background(), record("a", base, 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	now = base.Add(80 * time.Hour)
	got, err := log.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired record filtered, got %+v", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("read must not rewrite the file")
	}
}

func TestJSONLogCorruptFileIsPersistenceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	log := NewJSONLog(path, DefaultRetention, nil)
	if _, err := log.Read(context.Background()); !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.History.Backend = config.HistorySQLite
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	log, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer log.Close()
	if _, ok := log.(*SQLiteLog); !ok {
		t.Fatalf("expected sqlite log, got %T", log)
	}

	cfg.History.Backend = "redis"
	if _, err := Open(&cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
