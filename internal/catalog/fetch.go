package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dualsub/internal/cue"
	"dualsub/internal/logging"
	"dualsub/internal/services"
)

// Download returns the raw payload for candidate, consulting the cache first.
// Cache failures are logged and never fail the download.
func (c *Client) Download(ctx context.Context, candidate Candidate) ([]byte, error) {
	logger := logging.WithContext(ctx, c.logger)
	if strings.TrimSpace(candidate.DownloadURL) == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "download", "candidate has no download link", nil)
	}

	if c.cache != nil && candidate.ID != "" {
		data, ok, err := c.cache.Load(ctx, candidate.ID)
		switch {
		case err != nil:
			logger.Warn("subtitle cache lookup failed",
				logging.SubtitleID(candidate.ID),
				logging.Error(err),
				logging.String(logging.FieldEventType, "subcache_load_failed"),
				logging.String(logging.FieldErrorHint, "run 'dualsub cache clear' if the cache database is corrupt"),
				logging.String(logging.FieldImpact, "subtitle will be downloaded again"),
			)
		case ok:
			logger.Debug("subtitle served from cache",
				logging.String(logging.FieldEventType, "subcache_hit"),
				logging.SubtitleID(candidate.ID),
				logging.Int("bytes", len(data)),
			)
			return data, nil
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, candidate.DownloadURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "download", "build request", err)
	}
	c.applyHeaders(req)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "catalog", "download", "request failed", err)
	}
	defer resp.Body.Close()
	if err := statusError(resp, "download"); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownloadBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "catalog", "download", "read body", err)
	}
	if int64(len(data)) > c.maxDownloadBytes {
		return nil, services.Wrap(services.ErrValidation, "catalog", "download",
			fmt.Sprintf("payload exceeds %d bytes", c.maxDownloadBytes), nil)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "download", "empty payload", nil)
	}

	if c.cache != nil && candidate.ID != "" {
		if err := c.cache.Store(ctx, candidate.ID, candidate.Language, candidate.DownloadURL, data); err != nil {
			logger.Warn("subtitle cache store failed",
				logging.SubtitleID(candidate.ID),
				logging.Error(err),
				logging.String(logging.FieldEventType, "subcache_store_failed"),
				logging.String(logging.FieldErrorHint, "check free space and permissions for cache.path"),
				logging.String(logging.FieldImpact, "subtitle will be downloaded again next time"),
			)
		}
	}
	return data, nil
}

// FetchAndDecode downloads candidate, normalizes its encoding and parses the
// text into cues.
func (c *Client) FetchAndDecode(ctx context.Context, candidate Candidate) (cue.Sequence, error) {
	data, err := c.Download(ctx, candidate)
	if err != nil {
		return nil, err
	}
	text, err := c.normalizer.Normalize(data, candidate.DownloadURL)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, c.logger)
	seq := cue.Parse(text, logger)
	if len(seq) == 0 {
		return nil, services.Wrap(services.ErrDecode, "catalog", "parse", "no cues in subtitle "+candidate.ID, nil)
	}
	logger.Debug("subtitle decoded",
		logging.String(logging.FieldEventType, "catalog_fetch_complete"),
		logging.SubtitleID(candidate.ID),
		logging.Int("cues", len(seq)),
		logging.Int("timed_cues", seq.Timed()),
	)
	return seq, nil
}

// IsNoContent reports whether err means the candidate simply produced nothing
// usable, as opposed to a misconfiguration.
func IsNoContent(err error) bool {
	return services.IsNetwork(err) ||
		services.IsContentFailure(err) ||
		errors.Is(err, services.ErrNotFound) ||
		errors.Is(err, context.DeadlineExceeded)
}
