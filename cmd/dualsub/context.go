package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"dualsub/internal/catalog"
	"dualsub/internal/config"
	"dualsub/internal/logging"
	"dualsub/internal/ratelimit"
	"dualsub/internal/subcache"
	"dualsub/internal/textenc"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configFile bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
			}
		}
		c.config = cfg
		c.configPath = resolved
		c.configFile = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// runtime bundles the collaborators one command invocation shares.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	scheduler *ratelimit.Scheduler
	cache     *subcache.Cache
	client    *catalog.Client
}

func (r *runtime) Close() {
	if r.scheduler != nil {
		r.scheduler.Close()
	}
	if r.cache != nil {
		_ = r.cache.Close()
	}
}

// openRuntime builds the scheduler, cache and catalog client from config. A
// cache that cannot be opened is logged and skipped.
func (c *commandContext) openRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger}
	rt.scheduler = ratelimit.New(ratelimit.Options{
		Capacity: cfg.RateLimit.Capacity,
		Window:   cfg.Window(),
		Logger:   logger,
	})

	var payloads catalog.PayloadCache
	if cfg.Cache.Enabled {
		cache, err := subcache.Open(cfg.Cache.Path, cfg.CacheMaxAge(), logger)
		if err != nil {
			logging.WarnWithContext(logger, "download cache unavailable", "cache_open_failed",
				logging.Error(err),
				logging.String("path", cfg.Cache.Path),
				logging.String(logging.FieldErrorHint, "check cache.path permissions or set cache.enabled = false"),
				logging.String(logging.FieldImpact, "downloads will not be cached"),
			)
		} else {
			rt.cache = cache
			payloads = cache
		}
	}

	client, err := catalog.New(catalog.Config{
		BaseURL:          cfg.Catalog.BaseURL,
		UserAgent:        cfg.Catalog.UserAgent,
		SearchTimeout:    cfg.SearchTimeout(),
		DownloadTimeout:  cfg.DownloadTimeout(),
		MaxDownloadBytes: cfg.Catalog.MaxDownloadBytes,
		Scheduler:        rt.scheduler,
		Normalizer:       newNormalizer(cfg, logger),
		Cache:            payloads,
		Logger:           logger,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.client = client
	logger.Debug("runtime ready",
		logging.String("catalog", client.BaseURL()),
		logging.Bool("cache", rt.cache != nil),
		logging.Int("rate_limit_capacity", cfg.RateLimit.Capacity),
		logging.Duration("rate_limit_window", cfg.Window()),
	)
	return rt, nil
}

func newNormalizer(cfg *config.Config, logger *slog.Logger) *textenc.Normalizer {
	return textenc.New(
		textenc.WithLogger(logger),
		textenc.WithMaxDecompressedBytes(cfg.Catalog.MaxDownloadBytes*8),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
