package preflight

import (
	"context"
	"path/filepath"

	"dualsub/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Filesystem checks are skipped for features that are turned off.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.Cache.Enabled {
		results = append(results, CheckCreatableDirectory("Cache directory", filepath.Dir(cfg.Cache.Path)))
	}

	if cfg.Logging.Dir != "" {
		results = append(results, CheckCreatableDirectory("Log directory", cfg.Logging.Dir))
	}

	results = append(results, CheckCatalog(ctx, cfg.Catalog.BaseURL, cfg.Catalog.UserAgent))

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
