package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"slidereel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Placeholder intro clips are written so asset checks pass; uploads and
// email are disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Assets.Intro1080 = filepath.Join(base, "assets", "intro.mp4")
	cfgVal.Assets.Intro720 = filepath.Join(base, "assets", "intro720.mp4")
	cfgVal.Storage.Backend = config.StorageNone
	cfgVal.Notifications.PostmarkToken = ""
	cfgVal.History.Backend = config.HistoryJSON
	cfgVal.History.Path = filepath.Join(base, "history.json")

	WritePlaceholder(t, cfgVal.Assets.Intro1080, 64)
	WritePlaceholder(t, cfgVal.Assets.Intro720, 64)

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLocalStorage selects the local storage backend rooted in the test dir.
func WithLocalStorage() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = config.StorageLocal
		b.cfg.Storage.LocalDir = filepath.Join(b.baseDir, "published")
	}
}

// WithHistoryBackend switches the history backend, keeping it in the test dir.
func WithHistoryBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Backend = backend
		switch backend {
		case config.HistorySQLite:
			b.cfg.History.Path = filepath.Join(b.baseDir, "history.db")
		case config.HistoryPebble:
			b.cfg.History.Path = filepath.Join(b.baseDir, "history.pebble")
		}
	}
}

// WithStubbedBinaries writes ffmpeg and ffprobe stand-ins, points the render
// config at them and prepends their directory to PATH. The ffmpeg stub writes
// a small file at its last argument; the ffprobe stub reports a 1080p clip
// with three seconds of audio.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		stubs := map[string]string{
			"ffmpeg":  ffmpegStub,
			"ffprobe": ffprobeStub,
		}
		for name, script := range stubs {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Render.FFmpegBinary = filepath.Join(binDir, "ffmpeg")
		b.cfg.Render.FFprobeBinary = filepath.Join(binDir, "ffprobe")

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

const ffmpegStub = `#!/bin/sh
for last; do :; done
printf 'clip' > "$last"
echo "out_time_us=1000000"
echo "progress=end"
exit 0
`

const ffprobeStub = `#!/bin/sh
cat <<'JSON'
{"streams":[{"codec_type":"video","height":1080,"duration":"3.0"},{"codec_type":"audio","duration":"3.0"}],"format":{"duration":"3.0","size":"4"}}
JSON
`

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
