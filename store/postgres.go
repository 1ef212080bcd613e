package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deepnoodle-ai/gscript/bytecode"
)

// PgxConn is the subset of *pgxpool.Pool and *pgx.Conn used by
// PostgresBackend.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores artifacts in a PostgreSQL table shared by every
// process that compiles against the same environments.
type PostgresBackend struct {
	conn  PgxConn
	table string
}

// NewPostgres connects to the database and creates the artifact table.
func NewPostgres(ctx context.Context, connString string) (*PostgresBackend, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	b := NewPostgresConn(pool)
	if err := b.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return b, pool, nil
}

// NewPostgresConn returns a backend over an existing connection.
func NewPostgresConn(conn PgxConn) *PostgresBackend {
	return &PostgresBackend{conn: conn, table: "gscript_artifacts"}
}

// Migrate creates the artifact table when it does not exist.
func (p *PostgresBackend) Migrate(ctx context.Context) error {
	_, err := p.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+p.table+` (
		key TEXT PRIMARY KEY,
		revision UUID NOT NULL,
		data BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		revision string
		data     []byte
		created  time.Time
	)
	err := p.conn.QueryRow(ctx,
		"SELECT revision::text, data, created_at FROM "+p.table+" WHERE key = $1", key,
	).Scan(&revision, &data, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying artifact: %w", err)
	}
	return decodeEntry(key, revision, data, created)
}

func (p *PostgresBackend) Put(ctx context.Context, key string, blocks *bytecode.ScriptBlocks) (*Entry, error) {
	entry, data, err := newEntry(key, blocks)
	if err != nil {
		return nil, err
	}
	_, err = p.conn.Exec(ctx,
		"INSERT INTO "+p.table+" (key, revision, data, created_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (key) DO UPDATE SET revision = EXCLUDED.revision, data = EXCLUDED.data, created_at = EXCLUDED.created_at",
		key, entry.Revision.String(), data, entry.Created,
	)
	if err != nil {
		return nil, fmt.Errorf("saving artifact: %w", err)
	}
	return entry, nil
}
