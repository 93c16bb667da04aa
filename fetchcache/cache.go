// Package fetchcache persists fetched pages in SQLite so repeated
// pipeline runs against slow upstream catalogs can reuse recent
// responses.
package fetchcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultTTL is how long a cached page stays valid.
const DefaultTTL = 24 * time.Hour

// Cache is a TTL page cache backed by a SQLite file. Keys are the
// SHA-256 of the page URL so arbitrary URLs stay within index-friendly
// bounds.
type Cache struct {
	conn *sql.DB
	ttl  time.Duration
	now  func() time.Time
}

// Open creates or opens the cache database at path. A non-positive ttl
// selects DefaultTTL.
func Open(path string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	c := &Cache{conn: conn, ttl: ttl, now: time.Now}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS fetched_pages (
		url_hash TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		body BLOB NOT NULL,
		fetched_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetched_pages_fetched_at ON fetched_pages(fetched_at);
	`

	if _, err := c.conn.Exec(query); err != nil {
		return fmt.Errorf("create fetched_pages table: %w", err)
	}
	return nil
}

// Get returns the cached body for url. The bool reports whether a
// fresh entry existed; expired entries count as misses.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt time.Time
	err := c.conn.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM fetched_pages WHERE url_hash = ?`,
		hashURL(url)).Scan(&body, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached page: %w", err)
	}

	if c.now().Sub(fetchedAt) > c.ttl {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores body for url, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, url string, body []byte) error {
	_, err := c.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO fetched_pages (url_hash, url, body, fetched_at) VALUES (?, ?, ?, ?)`,
		hashURL(url), url, body, c.now().UTC())
	if err != nil {
		return fmt.Errorf("store cached page: %w", err)
	}
	return nil
}

// Purge removes expired entries and reports how many were dropped.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.conn.ExecContext(ctx,
		`DELETE FROM fetched_pages WHERE fetched_at < ?`,
		c.now().UTC().Add(-c.ttl))
	if err != nil {
		return 0, fmt.Errorf("purge cached pages: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.conn.Close()
}

func hashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
