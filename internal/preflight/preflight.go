package preflight

import (
	"context"
	"strings"

	"slidereel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to cfg. Notification and storage
// checks are skipped when those features are not configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckFile("Intro 1080p", cfg.Assets.Intro1080),
		CheckFile("Intro 720p", cfg.Assets.Intro720),
	}

	switch cfg.Storage.Backend {
	case config.StorageLocal:
		results = append(results, CheckDirectoryAccess("Local storage", cfg.Storage.LocalDir))
	case config.StorageS3, config.StorageGCS:
		results = append(results, CheckBucket(cfg.Storage))
	}

	if strings.TrimSpace(cfg.Notifications.PostmarkToken) != "" {
		results = append(results, CheckPostmark(ctx, cfg.Notifications.APIURL, cfg.Notifications.PostmarkToken))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
