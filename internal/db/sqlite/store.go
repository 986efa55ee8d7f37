// Package sqlite provides a durable db.Store on a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/archivefeed/internal/db"
)

var (
	_ db.Store  = (*Store)(nil)
	_ db.Pruner = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv(expires_at);
`

// Store persists values in SQLite. expires_at is unix millis, 0 means never.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: fmt.Errorf("open sqlite db: %w", err)}
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, &db.Error{Op: db.OpOpen, Err: fmt.Errorf("ping sqlite db: %w", err)}
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, &db.Error{Op: db.OpOpen, Err: fmt.Errorf("apply schema: %w", err)}
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() {
	_ = s.sqlDB.Close()
}

// Get returns the value at key unless it is missing or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, toMillis(s.now()),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return value, nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL upserts the value and its expiry in one statement, so readers
// see either the old row or the new one.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = toMillis(s.now().Add(ttl))
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists reports whether an unexpired value is stored at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, toMillis(s.now()),
	).Scan(&n)
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return n > 0, nil
}

// Prune deletes every row that expired at or before now.
func (s *Store) Prune(ctx context.Context, now time.Time) (int, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at <> 0 AND expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, &db.Error{Op: db.OpPrune, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &db.Error{Op: db.OpPrune, Err: err}
	}
	return int(n), nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}
