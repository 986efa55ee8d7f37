// Package file provides a db.Store that keeps one file per key in a directory.
// Writes go to a temp file that is renamed over the target, so a reader sees
// either the previous record or the new one, never a partial write.
package file

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kailas-cloud/archivefeed/internal/db"
)

var (
	_ db.Store  = (*Store)(nil)
	_ db.Pruner = (*Store)(nil)
)

const (
	recordExt  = ".rec"
	tempPrefix = ".tmp-"
	headerSize = 8
)

// Store maps keys to files under dir. Each file starts with an 8-byte
// big-endian expiry in unix millis (0 means never) followed by the value.
type Store struct {
	dir string
	now func() time.Time
}

// Open creates dir if needed and returns a store rooted there.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	return &Store{dir: filepath.Clean(dir), now: time.Now}, nil
}

// Ping checks that the directory is still there.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("ping: %s is not a directory", s.dir)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() {}

// Get returns the value at key unless it is missing or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	expiresAt, value, err := decodeRecord(data)
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	if expired(expiresAt, s.now()) {
		return nil, db.ErrKeyNotFound
	}
	return value, nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL atomically replaces the record at key.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}
	if err := s.writeAtomic(s.path(key), encodeRecord(expiresAt, value)); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes the record at key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists reports whether an unexpired record is stored at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Prune removes records that expired at or before now.
func (s *Store) Prune(ctx context.Context, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, &db.Error{Op: db.OpPrune, Err: err}
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, &db.Error{Op: db.OpPrune, Err: err}
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		p := filepath.Join(s.dir, e.Name())
		expiresAt, err := readExpiry(p)
		if err != nil {
			continue
		}
		if !expired(expiresAt, now) {
			continue
		}
		if err := os.Remove(p); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+recordExt)
}

func (s *Store) writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func encodeRecord(expiresAt int64, value []byte) []byte {
	buf := make([]byte, headerSize+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiresAt)) //nolint:gosec // expiry is never negative
	copy(buf[headerSize:], value)
	return buf
}

func decodeRecord(data []byte) (int64, []byte, error) {
	if len(data) < headerSize {
		return 0, nil, errors.New("truncated record")
	}
	return int64(binary.BigEndian.Uint64(data)), data[headerSize:], nil //nolint:gosec // written by encodeRecord
}

func readExpiry(path string) (int64, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the store dir
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var hdr [headerSize]byte
	if _, err := f.Read(hdr[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(hdr[:])), nil //nolint:gosec // written by encodeRecord
}

func expired(expiresAt int64, now time.Time) bool {
	return expiresAt != 0 && expiresAt <= now.UnixMilli()
}
