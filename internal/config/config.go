package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// Assets points at the branded intro clips prepended to every output.
type Assets struct {
	Intro1080 string `toml:"intro_1080"`
	Intro720  string `toml:"intro_720"`
}

// Render contains encoder and timing parameters for slide clips and transitions.
type Render struct {
	FFmpegBinary      string  `toml:"ffmpeg_binary"`
	FFprobeBinary     string  `toml:"ffprobe_binary"`
	SlidePauseSeconds float64 `toml:"slide_pause_seconds"`
	CrossfadeSeconds  float64 `toml:"crossfade_seconds"`
	IntroTailSeconds  float64 `toml:"intro_tail_seconds"`
	ShortSlideCount   int     `toml:"short_slide_count"`
	Preset            string  `toml:"preset"`
	VideoBitrate      string  `toml:"video_bitrate"`
	AudioBitrate      string  `toml:"audio_bitrate"`
	FrameRate         string  `toml:"frame_rate"`
	AudioGain         string  `toml:"audio_gain"`
}

// Storage selects and configures the remote destination for finished videos.
type Storage struct {
	Backend            string `toml:"backend"`
	Bucket             string `toml:"bucket"`
	Region             string `toml:"region"`
	AccessKeyID        string `toml:"access_key_id"`
	SecretAccessKey    string `toml:"secret_access_key"`
	Endpoint           string `toml:"endpoint"`
	PathStyle          bool   `toml:"path_style"`
	Prefix             string `toml:"prefix"`
	ACL                string `toml:"acl"`
	PublicURLTemplate  string `toml:"public_url_template"`
	LocalDir           string `toml:"local_dir"`
	GCSCredentialsFile string `toml:"gcs_credentials_file"`
	KeepLocal          bool   `toml:"keep_local"`
}

// Notifications contains configuration for Postmark email delivery.
type Notifications struct {
	PostmarkToken  string `toml:"postmark_token"`
	From           string `toml:"from"`
	APIURL         string `toml:"api_url"`
	RequestTimeout int    `toml:"request_timeout"`
	Retries        int    `toml:"retries"`
}

// History contains configuration for the completed-job log.
type History struct {
	Backend        string `toml:"backend"`
	Path           string `toml:"path"`
	RetentionHours int    `toml:"retention_hours"`
}

// API contains HTTP intake limits.
type API struct {
	MaxUploadMB int `toml:"max_upload_mb"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for slidereel.
//
// Configuration sections by subsystem:
//   - Paths: work/output/log directories and API bind address
//   - Assets: intro clips per resolution
//   - Render: ffmpeg binaries, slide pause, crossfade, encoder parameters
//   - Storage: upload backend (none, local, s3, gcs)
//   - Notifications: Postmark email settings
//   - History: completed-job log backend and retention window
//   - API: intake limits
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Assets        Assets        `toml:"assets"`
	Render        Render        `toml:"render"`
	Storage       Storage       `toml:"storage"`
	Notifications Notifications `toml:"notifications"`
	History       History       `toml:"history"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("slidereel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The local storage directory is only created when that backend is selected.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.History.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	if c.Storage.Backend == StorageLocal {
		if err := os.MkdirAll(c.Storage.LocalDir, 0o755); err != nil {
			return fmt.Errorf("create storage directory %q: %w", c.Storage.LocalDir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for encoding.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Render.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Render.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

// HistoryRetention reports how long completed jobs remain in the history log.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.History.RetentionHours) * time.Hour
}

// MaxUploadBytes converts the intake limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.API.MaxUploadMB) << 20
}

// RemoteKey joins the storage prefix and a file name into an object key.
func (c *Config) RemoteKey(fileName string) string {
	prefix := strings.Trim(c.Storage.Prefix, "/")
	if prefix == "" {
		return fileName
	}
	return prefix + "/" + fileName
}

// PublicURL renders the public link for an uploaded object key. It returns an
// empty string when no template applies to the configured backend.
func (c *Config) PublicURL(key string) string {
	tmpl := strings.TrimSpace(c.Storage.PublicURLTemplate)
	if tmpl == "" || key == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"{bucket}", c.Storage.Bucket,
		"{region}", c.Storage.Region,
		"{key}", key,
	)
	return replacer.Replace(tmpl)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
