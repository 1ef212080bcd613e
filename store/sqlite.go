package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deepnoodle-ai/gscript/bytecode"
)

// SQLiteBackend stores artifacts in a SQLite database file.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS artifacts (
		key TEXT PRIMARY KEY,
		revision TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Close closes the database.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		revision string
		data     []byte
		created  int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT revision, data, created_at FROM artifacts WHERE key = ?", key,
	).Scan(&revision, &data, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying artifact: %w", err)
	}
	return decodeEntry(key, revision, data, time.UnixMilli(created))
}

func (s *SQLiteBackend) Put(ctx context.Context, key string, blocks *bytecode.ScriptBlocks) (*Entry, error) {
	entry, data, err := newEntry(key, blocks)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO artifacts (key, revision, data, created_at) VALUES (?, ?, ?, ?)",
		key, entry.Revision.String(), data, entry.Created.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("saving artifact: %w", err)
	}
	return entry, nil
}
