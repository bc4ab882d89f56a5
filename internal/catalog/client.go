package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dualsub/internal/logging"
	"dualsub/internal/ratelimit"
	"dualsub/internal/textenc"
)

const (
	defaultBaseURL          = "https://rest.opensubtitles.org"
	defaultUserAgent        = "dualsub/dev"
	defaultSearchTimeout    = 10 * time.Second
	defaultDownloadTimeout  = 15 * time.Second
	defaultMaxDownloadBytes = 10 << 20
)

// Scheduler runs an operation under the shared search quota.
type Scheduler interface {
	Do(ctx context.Context, op func(context.Context) error) error
}

// Normalizer converts raw payload bytes into UTF-8 text.
type Normalizer interface {
	Normalize(data []byte, sourceHint string) (string, error)
}

// PayloadCache stores raw downloads between runs.
type PayloadCache interface {
	Load(ctx context.Context, id string) ([]byte, bool, error)
	Store(ctx context.Context, id, language, downloadURL string, data []byte) error
}

// Config describes the catalog client configuration.
type Config struct {
	BaseURL          string
	UserAgent        string
	SearchTimeout    time.Duration
	DownloadTimeout  time.Duration
	MaxDownloadBytes int64
	HTTPClient       *http.Client
	Scheduler        Scheduler
	Normalizer       Normalizer
	Cache            PayloadCache
	Logger           *slog.Logger
}

// Client talks to the legacy subtitle catalog REST API.
type Client struct {
	baseURL          *url.URL
	userAgent        string
	searchTimeout    time.Duration
	downloadTimeout  time.Duration
	maxDownloadBytes int64
	http             *http.Client
	scheduler        Scheduler
	normalizer       Normalizer
	cache            PayloadCache
	logger           *slog.Logger
}

// New creates a Client from the supplied configuration. Missing collaborators
// get defaults: a private scheduler with the standard quota and a chardet
// backed normalizer.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, errors.New("catalog: base url must be absolute")
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := logging.NewComponentLogger(cfg.Logger, "catalog")

	c := &Client{
		baseURL:          baseURL,
		userAgent:        userAgent,
		searchTimeout:    orDefault(cfg.SearchTimeout, defaultSearchTimeout),
		downloadTimeout:  orDefault(cfg.DownloadTimeout, defaultDownloadTimeout),
		maxDownloadBytes: cfg.MaxDownloadBytes,
		http:             cfg.HTTPClient,
		scheduler:        cfg.Scheduler,
		normalizer:       cfg.Normalizer,
		cache:            cfg.Cache,
		logger:           logger,
	}
	if c.maxDownloadBytes <= 0 {
		c.maxDownloadBytes = defaultMaxDownloadBytes
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.scheduler == nil {
		c.scheduler = ratelimit.New(ratelimit.Options{Logger: cfg.Logger})
	}
	if c.normalizer == nil {
		c.normalizer = textenc.New(textenc.WithLogger(cfg.Logger), textenc.WithMaxDecompressedBytes(c.maxDownloadBytes*8))
	}
	return c, nil
}

// BaseURL returns the configured catalog root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("X-User-Agent", c.userAgent)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
