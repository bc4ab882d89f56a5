package subcache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func openTestCache(t *testing.T, maxAge time.Duration) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "nested", "subtitles.db"), maxAge, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCacheStoreAndLoad(t *testing.T) {
	cache := openTestCache(t, 0)
	ctx := context.Background()

	if _, ok, err := cache.Load(ctx, "123"); err != nil || ok {
		t.Fatalf("expected miss on empty cache, ok=%v err=%v", ok, err)
	}
	payload := []byte("1\n00:00:01,000 --> 00:00:02,000\nHi\n")
	if err := cache.Store(ctx, "123", "eng", "https://dl.example/123.gz", payload); err != nil {
		t.Fatalf("Store: %v", err)
	}
	data, ok, err := cache.Load(ctx, "123")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(data) != string(payload) {
		t.Fatalf("payload mismatch: %q", data)
	}

	entry, ok, err := cache.Get(ctx, "123")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if entry.Language != "eng" || entry.DownloadURL != "https://dl.example/123.gz" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestCacheStoreReplaces(t *testing.T) {
	cache := openTestCache(t, 0)
	ctx := context.Background()
	_ = cache.Store(ctx, "1", "eng", "u1", []byte("old"))
	if err := cache.Store(ctx, "1", "eng", "u2", []byte("new")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	data, _, _ := cache.Load(ctx, "1")
	if string(data) != "new" {
		t.Fatalf("expected replacement, got %q", data)
	}
	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Entries != 1 || stats.Bytes != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCacheRejectsInvalidInput(t *testing.T) {
	cache := openTestCache(t, 0)
	ctx := context.Background()
	if err := cache.Store(ctx, " ", "eng", "", []byte("x")); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := cache.Store(ctx, "1", "eng", "", nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, _, err := cache.Load(ctx, ""); err == nil {
		t.Fatal("expected error for empty id on load")
	}
}

func TestCacheExpiryAndPrune(t *testing.T) {
	cache := openTestCache(t, 24*time.Hour)
	ctx := context.Background()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	cache.now = func() time.Time { return base.Add(-48 * time.Hour) }
	if err := cache.Store(ctx, "old", "eng", "", []byte("old")); err != nil {
		t.Fatalf("Store old: %v", err)
	}
	cache.now = func() time.Time { return base }
	if err := cache.Store(ctx, "fresh", "tur", "", []byte("fresh")); err != nil {
		t.Fatalf("Store fresh: %v", err)
	}

	if _, ok, _ := cache.Load(ctx, "old"); ok {
		t.Fatal("expired entry should miss")
	}
	if _, ok, _ := cache.Load(ctx, "fresh"); !ok {
		t.Fatal("fresh entry should hit")
	}

	removed, err := cache.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	stats, _ := cache.Stats(ctx)
	if stats.Entries != 1 || stats.ByLanguage["tur"] != 1 {
		t.Fatalf("unexpected stats after prune: %+v", stats)
	}
}

func TestCacheClear(t *testing.T) {
	cache := openTestCache(t, 0)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = cache.Store(ctx, id, "eng", "", []byte(id))
	}
	removed, err := cache.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	stats, _ := cache.Stats(ctx)
	if stats.Entries != 0 || !stats.Oldest.IsZero() {
		t.Fatalf("expected empty cache, got %+v", stats)
	}
}

func TestCacheMaintenanceRespectsLock(t *testing.T) {
	cache := openTestCache(t, 0)
	other := flock.New(cache.Path() + ".lock")
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire external lock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = other.Unlock() }()

	if _, err := cache.Clear(context.Background()); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtitles.db")
	first, err := Open(path, 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = first.Store(context.Background(), "x", "eng", "", []byte("payload"))
	_ = first.Close()

	second, err := Open(path, 0, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, ok, _ := second.Load(context.Background(), "x"); !ok {
		t.Fatal("expected entry to survive reopen")
	}
}
