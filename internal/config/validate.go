package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.API.MaxUploadMB <= 0 {
		return errors.New("api.max_upload_mb must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.CrossfadeSeconds <= 0 {
		return errors.New("render.crossfade_seconds must be positive")
	}
	if c.Render.SlidePauseSeconds < 0 {
		return errors.New("render.slide_pause_seconds must be >= 0")
	}
	if c.Render.IntroTailSeconds < 0 {
		return errors.New("render.intro_tail_seconds must be >= 0")
	}
	if c.Render.ShortSlideCount < 1 {
		return errors.New("render.short_slide_count must be at least 1")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageNone:
		return nil
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir is required when storage.backend is local")
		}
	case StorageS3:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for s3. Set AWS_BUCKET_NAME or edit the config file")
		}
		if c.Storage.Region == "" {
			return errors.New("storage.region is required for s3. Set AWS_REGION or edit the config file")
		}
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for gcs")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want none, local, s3, or gcs)", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.Retries < 0 {
		return errors.New("notifications.retries must be >= 0")
	}
	if c.Notifications.PostmarkToken != "" && strings.TrimSpace(c.Notifications.From) == "" {
		return errors.New("notifications.from is required when a postmark token is configured")
	}
	return nil
}

func (c *Config) validateHistory() error {
	switch c.History.Backend {
	case HistoryJSON, HistorySQLite, HistoryPebble:
	default:
		return fmt.Errorf("history.backend: unsupported value %q (want json, sqlite, or pebble)", c.History.Backend)
	}
	if c.History.Path == "" {
		return errors.New("history.path must be set")
	}
	if c.History.RetentionHours <= 0 {
		return errors.New("history.retention_hours must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
