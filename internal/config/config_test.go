package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"slidereel/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AWS_BUCKET_NAME", "AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "POSTMARK_KEY", "POSTMARK_FROM", "SLIDEREEL_API_TOKEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "slidereel", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Assets.Intro720 != filepath.Join(tempHome, ".local", "share", "slidereel", "assets", "intro720.mp4") {
		t.Fatalf("unexpected intro720 path: %q", cfg.Assets.Intro720)
	}
	if cfg.Storage.Backend != config.StorageNone {
		t.Fatalf("expected storage disabled without a bucket, got %q", cfg.Storage.Backend)
	}
	if cfg.History.Backend != config.HistoryJSON {
		t.Fatalf("unexpected history backend %q", cfg.History.Backend)
	}
	if cfg.HistoryRetention().Hours() != 72 {
		t.Fatalf("expected 72h retention, got %s", cfg.HistoryRetention())
	}
	if cfg.Render.CrossfadeSeconds != 1 || cfg.Render.SlidePauseSeconds != 2 {
		t.Fatalf("unexpected render timing: %+v", cfg.Render)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binaries %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
}

func TestBucketEnvSelectsS3(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AWS_BUCKET_NAME", "course-videos")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.Backend != config.StorageS3 {
		t.Fatalf("expected s3 backend, got %q", cfg.Storage.Backend)
	}
	key := cfg.RemoteKey("clip.mp4")
	if key != "videos/clip.mp4" {
		t.Fatalf("unexpected remote key %q", key)
	}
	want := "https://course-videos.s3.eu-west-1.amazonaws.com/videos/clip.mp4"
	if got := cfg.PublicURL(key); got != want {
		t.Fatalf("PublicURL = %q, want %q", got, want)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	payload := map[string]any{
		"paths": map[string]any{
			"work_dir": "~/jobs",
		},
		"render": map[string]any{
			"crossfade_seconds": 0.5,
			"short_slide_count": 2,
		},
		"history": map[string]any{
			"backend": "sqlite",
		},
		"storage": map[string]any{
			"backend":   "local",
			"local_dir": "~/published",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(home, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(home, "jobs") {
		t.Fatalf("unexpected work dir %q", cfg.Paths.WorkDir)
	}
	if cfg.Render.CrossfadeSeconds != 0.5 || cfg.Render.ShortSlideCount != 2 {
		t.Fatalf("render overrides not applied: %+v", cfg.Render)
	}
	if filepath.Base(cfg.History.Path) != "history.db" {
		t.Fatalf("expected sqlite history path, got %q", cfg.History.Path)
	}
	if cfg.Storage.LocalDir != filepath.Join(home, "published") {
		t.Fatalf("unexpected local dir %q", cfg.Storage.LocalDir)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if _, err := os.Stat(cfg.Storage.LocalDir); err != nil {
		t.Fatalf("expected local storage dir to exist: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"crossfade", func(c *config.Config) { c.Render.CrossfadeSeconds = 0 }, "crossfade_seconds"},
		{"short count", func(c *config.Config) { c.Render.ShortSlideCount = 0 }, "short_slide_count"},
		{"backend", func(c *config.Config) { c.Storage.Backend = "ftp" }, "storage.backend"},
		{"s3 bucket", func(c *config.Config) { c.Storage.Backend = config.StorageS3 }, "storage.bucket"},
		{"history backend", func(c *config.Config) { c.History.Backend = "redis" }, "history.backend"},
		{"retention", func(c *config.Config) { c.History.RetentionHours = 0 }, "retention_hours"},
		{"postmark from", func(c *config.Config) { c.Notifications.PostmarkToken = "tok" }, "notifications.from"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Backend = config.StorageNone
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Storage.Backend != config.StorageNone {
		t.Fatalf("sample should default to no storage, got %q", cfg.Storage.Backend)
	}
}
