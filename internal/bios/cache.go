package bios

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gamersidekick/sidekick/internal/utils"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS file_hashes (
    path TEXT PRIMARY KEY,
    size INTEGER NOT NULL,
    mtime TEXT NOT NULL, -- RFC3339Nano
    md5 TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_file_hashes_md5 ON file_hashes(md5);
`

// HashCache persists file MD5s in SQLite so repeated scans of large ROM/BIOS
// collections don't rehash unchanged files. Entries are keyed by absolute
// path and invalidated when size or mtime drift.
type HashCache struct {
	db *sqlx.DB
}

type cacheRow struct {
	Path  string `db:"path"`
	Size  int64  `db:"size"`
	MTime string `db:"mtime"`
	MD5   string `db:"md5"`
}

// OpenHashCache creates or opens the hash cache database at dbPath.
func OpenHashCache(dbPath string) (*HashCache, error) {
	if err := utils.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open hash cache %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize hash cache schema: %w", err)
	}

	return &HashCache{db: db}, nil
}

func (c *HashCache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached MD5 for path when its size and mtime still match.
func (c *HashCache) Lookup(path string, size int64, mtime time.Time) (string, bool) {
	var row cacheRow
	err := c.db.Get(&row, "SELECT path, size, mtime, md5 FROM file_hashes WHERE path = ?", path)
	if err != nil {
		return "", false
	}
	if row.Size != size || row.MTime != mtime.Format(time.RFC3339Nano) {
		return "", false
	}
	return row.MD5, true
}

// Store upserts the MD5 for path at the given size and mtime.
func (c *HashCache) Store(path string, size int64, mtime time.Time, md5 string) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO file_hashes (path, size, mtime, md5) VALUES (?, ?, ?, ?)",
		path, size, mtime.Format(time.RFC3339Nano), md5,
	)
	if err != nil {
		return fmt.Errorf("store hash for %s: %w", path, err)
	}
	return nil
}
