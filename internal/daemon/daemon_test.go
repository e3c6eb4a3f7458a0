package daemon_test

import (
	"context"
	"testing"

	"slidereel/internal/daemon"
	"slidereel/internal/history"
	"slidereel/internal/pipeline"
	"slidereel/internal/queue"
	"slidereel/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	hist, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	pipe := pipeline.New(cfg, pipeline.Dependencies{Runner: &testsupport.FakeFFmpeg{}, Prober: testsupport.FakeProber{}})
	mgr := queue.NewManager(cfg, queue.Dependencies{Runner: pipe, History: hist})
	d, err := daemon.New(cfg, nil, mgr, hist, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if d.Address() == "" {
		t.Fatal("expected api address once started")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondDaemonCannotTakeLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	build := func() *daemon.Daemon {
		pipe := pipeline.New(cfg, pipeline.Dependencies{Runner: &testsupport.FakeFFmpeg{}, Prober: testsupport.FakeProber{}})
		mgr := queue.NewManager(cfg, queue.Dependencies{Runner: pipe})
		d, err := daemon.New(cfg, nil, mgr, nil, nil)
		if err != nil {
			t.Fatalf("daemon.New: %v", err)
		}
		t.Cleanup(func() { d.Close() })
		return d
	}

	first := build()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	second := build()
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected lock contention error")
	}
}
