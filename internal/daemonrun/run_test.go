package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"slidereel/internal/testsupport"
)

func TestRunStartsAndStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Logging.RetentionDays = 1

	stale := filepath.Join(cfg.Paths.LogDir, "slidereel-20000101T000000.000Z.log")
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().AddDate(0, 0, -3)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, Options{LogLevel: "error"}) }()

	pidPath := filepath.Join(cfg.Paths.LogDir, "slidereel.pid")
	lockPath := filepath.Join(cfg.Paths.LogDir, "slidereel.lock")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, pidErr := os.Stat(pidPath)
		_, lockErr := os.Stat(lockPath)
		if pidErr == nil && lockErr == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("daemon did not take its lock: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale log should be pruned, stat err=%v", err)
	}
	if _, err := os.Lstat(filepath.Join(cfg.Paths.LogDir, "slidereel.log")); err != nil {
		t.Fatalf("current log pointer missing: %v", err)
	}
}
