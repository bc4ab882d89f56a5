package config

const (
	defaultConfigPath             = "~/.config/dualsub/config.toml"
	projectConfigName             = "dualsub.toml"
	defaultCatalogBaseURL         = "https://rest.opensubtitles.org"
	defaultUserAgent              = "dualsub/dev"
	defaultSearchTimeoutSeconds   = 10
	defaultDownloadTimeoutSeconds = 15
	defaultMaxCandidates          = 3
	defaultMaxDownloadBytes       = 10 << 20
	defaultRateLimitCapacity      = 40
	defaultRateLimitWindowSeconds = 60
	defaultThresholdMS            = 500
	defaultMainLanguage           = "eng"
	defaultTranslationLanguage    = "tur"
	defaultCachePath              = "~/.cache/dualsub/subtitles.db"
	defaultCacheMaxAgeDays        = 30
	defaultLogFormat              = "auto"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Catalog: Catalog{
			BaseURL:                defaultCatalogBaseURL,
			UserAgent:              defaultUserAgent,
			SearchTimeoutSeconds:   defaultSearchTimeoutSeconds,
			DownloadTimeoutSeconds: defaultDownloadTimeoutSeconds,
			MaxCandidates:          defaultMaxCandidates,
			MaxDownloadBytes:       defaultMaxDownloadBytes,
		},
		RateLimit: RateLimit{
			Capacity:      defaultRateLimitCapacity,
			WindowSeconds: defaultRateLimitWindowSeconds,
		},
		Alignment: Alignment{
			ThresholdMS: defaultThresholdMS,
		},
		Languages: Languages{
			Main:        defaultMainLanguage,
			Translation: defaultTranslationLanguage,
		},
		Cache: Cache{
			Enabled:    true,
			Path:       defaultCachePath,
			MaxAgeDays: defaultCacheMaxAgeDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
