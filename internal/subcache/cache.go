package subcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"dualsub/internal/logging"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	lockRetryDelay          = 50 * time.Millisecond
)

// ErrLocked is returned when another process holds the maintenance lock.
var ErrLocked = errors.New("subtitle cache is locked by another process")

// Cache stores raw subtitle downloads keyed by catalog file id.
type Cache struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Entry is one cached download.
type Entry struct {
	ID          string
	Language    string
	DownloadURL string
	Data        []byte
	StoredAt    time.Time
}

// Stats summarises cache contents.
type Stats struct {
	Path       string
	Entries    int
	Bytes      int64
	Oldest     time.Time
	Newest     time.Time
	ByLanguage map[string]int
}

// Open creates or connects to the cache database at path. Entries older than
// maxAge are treated as misses; zero keeps entries forever.
func Open(path string, maxAge time.Duration, logger *slog.Logger) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{
		db:     db,
		path:   path,
		lock:   flock.New(path + ".lock"),
		maxAge: maxAge,
		logger: logging.NewComponentLogger(logger, "subcache"),
		now:    time.Now,
	}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Path returns the database location.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Load returns the cached payload for id. Expired entries report a miss.
func (c *Cache) Load(ctx context.Context, id string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, errors.New("cache unavailable")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false, errors.New("invalid subtitle id")
	}
	var (
		data     []byte
		storedAt int64
	)
	err := retryOnBusy(ctx, func() error {
		return c.db.QueryRowContext(ctx,
			"SELECT data, stored_at FROM downloads WHERE id = ?", id,
		).Scan(&data, &storedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load cached subtitle %s: %w", id, err)
	}
	if c.expired(time.Unix(storedAt, 0)) {
		c.logger.Debug("cached subtitle expired",
			logging.String(logging.FieldEventType, "subcache_expired"),
			logging.SubtitleID(id),
		)
		return nil, false, nil
	}
	return data, true, nil
}

// Store saves a downloaded payload, replacing any previous copy.
func (c *Cache) Store(ctx context.Context, id, language, downloadURL string, data []byte) error {
	if c == nil {
		return errors.New("cache unavailable")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("invalid subtitle id")
	}
	if len(data) == 0 {
		return errors.New("refusing to cache empty payload")
	}
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx, `INSERT INTO downloads (id, language, download_url, data, size_bytes, stored_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    language = excluded.language,
    download_url = excluded.download_url,
    data = excluded.data,
    size_bytes = excluded.size_bytes,
    stored_at = excluded.stored_at`,
			id, language, downloadURL, data, len(data), c.now().Unix())
		return err
	})
}

// Get returns the full entry for id regardless of age.
func (c *Cache) Get(ctx context.Context, id string) (Entry, bool, error) {
	var (
		entry    Entry
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT id, language, download_url, data, stored_at FROM downloads WHERE id = ?", strings.TrimSpace(id),
	).Scan(&entry.ID, &entry.Language, &entry.DownloadURL, &entry.Data, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get cached subtitle: %w", err)
	}
	entry.StoredAt = time.Unix(storedAt, 0)
	return entry, true, nil
}

// Stats reports entry counts and sizes.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: c.path, ByLanguage: map[string]int{}}
	var oldest, newest sql.NullInt64
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(size_bytes), 0), MIN(stored_at), MAX(stored_at) FROM downloads",
	).Scan(&stats.Entries, &stats.Bytes, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	if oldest.Valid {
		stats.Oldest = time.Unix(oldest.Int64, 0)
	}
	if newest.Valid {
		stats.Newest = time.Unix(newest.Int64, 0)
	}

	rows, err := c.db.QueryContext(ctx, "SELECT language, COUNT(1) FROM downloads GROUP BY language")
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats by language: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			lang  string
			count int
		)
		if err := rows.Scan(&lang, &count); err != nil {
			return Stats{}, err
		}
		stats.ByLanguage[lang] = count
	}
	return stats, rows.Err()
}

// Prune deletes expired entries and returns how many were removed. It holds
// the maintenance lock so concurrent invocations do not vacuum together.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c.maxAge <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.maxAge).Unix()
	return c.withLock(ctx, "prune", func() (int64, error) {
		res, err := c.execWithRetry(ctx, "DELETE FROM downloads WHERE stored_at < ?", cutoff)
		if err != nil {
			return 0, fmt.Errorf("prune cache: %w", err)
		}
		return res.RowsAffected()
	})
}

// Clear deletes every entry.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	return c.withLock(ctx, "clear", func() (int64, error) {
		res, err := c.execWithRetry(ctx, "DELETE FROM downloads")
		if err != nil {
			return 0, fmt.Errorf("clear cache: %w", err)
		}
		return res.RowsAffected()
	})
}

func (c *Cache) withLock(ctx context.Context, operation string, fn func() (int64, error)) (int64, error) {
	lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	ok, err := c.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return 0, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return 0, ErrLocked
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("failed to release cache lock",
				logging.Error(err),
				logging.String(logging.FieldEventType, "subcache_unlock_failed"),
				logging.String(logging.FieldErrorHint, "remove "+c.path+".lock if no dualsub process is running"),
				logging.String(logging.FieldImpact, "later cache maintenance may report the cache as locked"),
			)
		}
	}()

	removed, err := fn()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		if _, err := c.execWithRetry(ctx, "VACUUM"); err != nil {
			c.logger.Debug("vacuum failed", logging.Error(err))
		}
	}
	c.logger.Info("cache maintenance complete",
		logging.String(logging.FieldEventType, "subcache_"+operation),
		logging.Int64("removed", removed),
	)
	return removed, nil
}

func (c *Cache) expired(storedAt time.Time) bool {
	return c.maxAge > 0 && c.now().Sub(storedAt) > c.maxAge
}

func (c *Cache) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = c.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
