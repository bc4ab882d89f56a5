package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"dualsub/internal/logging"
	"dualsub/internal/services"
)

const maxSearchResponseBytes = 8 << 20

// Search runs one catalog search for languageCode through the scheduler and
// returns the raw candidates in catalog order. A non-array response yields
// no candidates and no error.
func (c *Client) Search(ctx context.Context, languageCode string, params SearchParams) ([]Candidate, error) {
	endpoint := c.searchURL(languageCode, params)
	var candidates []Candidate
	err := c.scheduler.Do(ctx, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, c.searchTimeout)
		defer cancel()
		var err error
		candidates, err = c.doSearch(reqCtx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// SearchAndRank searches for languageCode and returns usable candidates, best
// first. Every failure is logged and reported as an empty result.
func (c *Client) SearchAndRank(ctx context.Context, languageCode string, params SearchParams) []Candidate {
	ctx = services.WithLanguage(ctx, languageCode)
	logger := logging.WithContext(ctx, c.logger)
	raw, err := c.Search(ctx, languageCode, params)
	if err != nil {
		hint := "check network connectivity and catalog.base_url"
		if errors.Is(err, services.ErrRateLimited) {
			hint = "the catalog rejected the request rate; wait a minute and retry"
		}
		logging.WarnWithContext(logger, "catalog search failed", "catalog_search_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "no subtitles for this language"),
		)
		return nil
	}
	ranked := Rank(raw)
	logger.Info("catalog search complete",
		logging.String(logging.FieldEventType, "catalog_search_complete"),
		logging.Int("results", len(raw)),
		logging.Int("usable", len(ranked)),
	)
	return ranked
}

func (c *Client) doSearch(ctx context.Context, endpoint string) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "search", "build request", err)
	}
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "catalog", "search", "request failed", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, "search"); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchResponseBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "catalog", "search", "read response", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, nil
	}
	var entries []searchEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, services.Wrap(services.ErrDecode, "catalog", "search", "decode response", err)
	}
	candidates := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		candidates = append(candidates, entry.candidate())
	}
	return candidates, nil
}

// searchURL builds {base}/search/key-value/... with keys in alphabetical
// order, which the legacy API requires.
func (c *Client) searchURL(languageCode string, params SearchParams) string {
	values := map[string]string{
		"sublanguageid": strings.ToLower(strings.TrimSpace(languageCode)),
	}
	if imdb := sanitizeIMDBID(params.IMDBID); imdb != "" {
		values["imdbid"] = imdb
	}
	if q := strings.ToLower(strings.TrimSpace(params.Query)); q != "" {
		values["query"] = q
	}
	if params.Season > 0 {
		values["season"] = strconv.Itoa(params.Season)
	}
	if params.Episode > 0 {
		values["episode"] = strconv.Itoa(params.Episode)
	}
	if hash := strings.ToLower(strings.TrimSpace(params.MovieHash)); hash != "" {
		values["moviehash"] = hash
	}
	if params.MovieByteSize > 0 {
		values["moviebytesize"] = strconv.FormatInt(params.MovieByteSize, 10)
	}
	keys := make([]string, 0, len(values))
	for key, value := range values {
		if value != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.TrimRight(c.baseURL.String(), "/"))
	b.WriteString("/search")
	for _, key := range keys {
		b.WriteByte('/')
		b.WriteString(key)
		b.WriteByte('-')
		b.WriteString(url.PathEscape(values[key]))
	}
	return b.String()
}

func statusError(resp *http.Response, operation string) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	if resp.StatusCode == http.StatusTooManyRequests {
		return services.Wrap(services.ErrRateLimited, "catalog", operation, message, nil)
	}
	if resp.StatusCode == http.StatusNotFound {
		return services.Wrap(services.ErrNotFound, "catalog", operation, message, nil)
	}
	return services.Wrap(services.ErrNetwork, "catalog", operation, message, nil)
}

func sanitizeIMDBID(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	value = strings.TrimPrefix(value, "tt")
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
