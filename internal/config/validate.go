package config

import (
	"errors"
	"fmt"
	"net/url"

	"dualsub/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if c.Alignment.ThresholdMS < 0 {
		return errors.New("alignment.threshold_ms must be zero or positive")
	}
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if c.Cache.MaxAgeDays < 0 {
		return errors.New("cache.max_age_days must be zero or positive")
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	parsed, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("catalog.base_url must be an absolute URL, got %q", c.Catalog.BaseURL)
	}
	if c.Catalog.SearchTimeoutSeconds <= 0 {
		return errors.New("catalog.search_timeout_seconds must be positive")
	}
	if c.Catalog.DownloadTimeoutSeconds <= 0 {
		return errors.New("catalog.download_timeout_seconds must be positive")
	}
	if c.Catalog.MaxCandidates <= 0 {
		return errors.New("catalog.max_candidates must be positive")
	}
	if c.Catalog.MaxDownloadBytes <= 0 {
		return errors.New("catalog.max_download_bytes must be positive")
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if c.RateLimit.Capacity <= 0 {
		return errors.New("rate_limit.capacity must be positive")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return errors.New("rate_limit.window_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if len(c.Languages.Main) != 3 {
		return fmt.Errorf("languages.main must be a 2- or 3-letter language code, got %q", c.Languages.Main)
	}
	if len(c.Languages.Translation) != 3 {
		return fmt.Errorf("languages.translation must be a 2- or 3-letter language code, got %q", c.Languages.Translation)
	}
	if language.SameLanguage(c.Languages.Main, c.Languages.Translation) {
		return fmt.Errorf("languages.translation must differ from languages.main, both are %q", c.Languages.Main)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
