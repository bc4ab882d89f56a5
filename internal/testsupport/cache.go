package testsupport

import (
	"testing"

	"dualsub/internal/config"
	"dualsub/internal/logging"
	"dualsub/internal/subcache"
)

// MustOpenCache opens the download cache configured in cfg and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *subcache.Cache {
	t.Helper()

	cache, err := subcache.Open(cfg.Cache.Path, cfg.CacheMaxAge(), logging.NewNop())
	if err != nil {
		t.Fatalf("subcache.Open: %v", err)
	}
	t.Cleanup(func() {
		cache.Close()
	})
	return cache
}
