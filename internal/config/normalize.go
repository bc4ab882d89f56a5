package config

import (
	"fmt"
	"os"
	"strings"

	"dualsub/internal/language"
)

func (c *Config) normalize() error {
	c.normalizeCatalog()
	c.normalizeLanguages()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.UserAgent = strings.TrimSpace(c.Catalog.UserAgent)
	if value, ok := os.LookupEnv("DUALSUB_USER_AGENT"); ok && strings.TrimSpace(value) != "" {
		if c.Catalog.UserAgent == "" || c.Catalog.UserAgent == defaultUserAgent {
			c.Catalog.UserAgent = strings.TrimSpace(value)
		}
	}
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeLanguages() {
	if code := language.CatalogCode(c.Languages.Main); code != "" {
		c.Languages.Main = code
	} else {
		c.Languages.Main = strings.ToLower(strings.TrimSpace(c.Languages.Main))
	}
	if code := language.CatalogCode(c.Languages.Translation); code != "" {
		c.Languages.Translation = code
	} else {
		c.Languages.Translation = strings.ToLower(strings.TrimSpace(c.Languages.Translation))
	}
}

func (c *Config) normalizeCache() error {
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath
	}
	var err error
	if c.Cache.Path, err = expandPath(strings.TrimSpace(c.Cache.Path)); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		var err error
		if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
	}
	return nil
}
