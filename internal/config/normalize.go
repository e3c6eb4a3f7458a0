package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAssets(); err != nil {
		return err
	}
	c.normalizeRender()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeNotifications()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("SLIDEREEL_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeAssets() error {
	var err error
	if c.Assets.Intro1080, err = expandPath(c.Assets.Intro1080); err != nil {
		return fmt.Errorf("assets.intro_1080: %w", err)
	}
	if c.Assets.Intro720, err = expandPath(c.Assets.Intro720); err != nil {
		return fmt.Errorf("assets.intro_720: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	c.Render.FFprobeBinary = strings.TrimSpace(c.Render.FFprobeBinary)
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	if c.Render.Preset == "" {
		c.Render.Preset = defaultPreset
	}
	if strings.TrimSpace(c.Render.VideoBitrate) == "" {
		c.Render.VideoBitrate = defaultVideoBitrate
	}
	if strings.TrimSpace(c.Render.AudioBitrate) == "" {
		c.Render.AudioBitrate = defaultAudioBitrate
	}
	if strings.TrimSpace(c.Render.FrameRate) == "" {
		c.Render.FrameRate = defaultFrameRate
	}
	if strings.TrimSpace(c.Render.AudioGain) == "" {
		c.Render.AudioGain = defaultAudioGain
	}
	if c.Render.ShortSlideCount == 0 {
		c.Render.ShortSlideCount = defaultShortSlideCount
	}
}

func (c *Config) normalizeStorage() error {
	if c.Storage.Bucket == "" {
		if value, ok := os.LookupEnv("AWS_BUCKET_NAME"); ok {
			c.Storage.Bucket = strings.TrimSpace(value)
		}
	}
	if c.Storage.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok {
			c.Storage.Region = strings.TrimSpace(value)
		}
	}
	if c.Storage.AccessKeyID == "" && c.Storage.SecretAccessKey == "" {
		c.Storage.AccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
		c.Storage.SecretAccessKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	}

	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend == "" {
		backend = StorageNone
		if c.Storage.Bucket != "" {
			backend = StorageS3
		}
	}
	c.Storage.Backend = backend

	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.PublicURLTemplate = strings.TrimSpace(c.Storage.PublicURLTemplate)
	if c.Storage.PublicURLTemplate == "" {
		switch backend {
		case StorageS3:
			if c.Storage.Endpoint == "" {
				c.Storage.PublicURLTemplate = defaultS3PublicURLTemplate
			}
		case StorageGCS:
			c.Storage.PublicURLTemplate = defaultGCSPublicURLTemplate
		}
	}

	var err error
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	if c.Storage.GCSCredentialsFile, err = expandPath(c.Storage.GCSCredentialsFile); err != nil {
		return fmt.Errorf("storage.gcs_credentials_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.PostmarkToken == "" {
		if value, ok := os.LookupEnv("POSTMARK_KEY"); ok {
			c.Notifications.PostmarkToken = strings.TrimSpace(value)
		}
	}
	if c.Notifications.From == "" {
		if value, ok := os.LookupEnv("POSTMARK_FROM"); ok {
			c.Notifications.From = strings.TrimSpace(value)
		}
	}
	c.Notifications.APIURL = strings.TrimSpace(c.Notifications.APIURL)
	if c.Notifications.APIURL == "" {
		c.Notifications.APIURL = defaultPostmarkAPIURL
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeHistory() error {
	c.History.Backend = strings.ToLower(strings.TrimSpace(c.History.Backend))
	if c.History.Backend == "" {
		c.History.Backend = HistoryJSON
	}

	path := strings.TrimSpace(c.History.Path)
	if path == "" {
		path = defaultHistoryPath
	}
	// The json default is rebased for the other backends so switching backend
	// alone yields a usable location.
	if strings.EqualFold(filepath.Ext(path), ".json") {
		switch c.History.Backend {
		case HistorySQLite:
			path = filepath.Join(filepath.Dir(path), sqliteHistoryDatabaseFileName)
		case HistoryPebble:
			path = strings.TrimSuffix(path, filepath.Ext(path)) + pebbleHistoryDirectorySuffix
		}
	}

	var err error
	if c.History.Path, err = expandPath(path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
