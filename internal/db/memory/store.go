// Package memory is an in-process db.Store on go-cache. Records do not
// survive a restart; use it in local and test environments.
package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kailas-cloud/archivefeed/internal/db"
)

var _ db.Store = (*Store)(nil)

// Store keeps values in a go-cache instance.
type Store struct {
	cache *cache.Cache
}

// NewStore creates a store that evicts expired items every cleanupInterval.
func NewStore(cleanupInterval time.Duration) *Store {
	return &Store{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close drops every item.
func (s *Store) Close() {
	s.cache.Flush()
}

// Get returns a copy of the stored value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return clone(b), nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL replaces the value and its expiry. A ttl <= 0 never expires.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	s.cache.Set(key, clone(value), ttl)
	return nil
}

// Del removes a key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	s.cache.Delete(key)
	return nil
}

// Exists reports whether an unexpired value is stored at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	_, ok := s.cache.Get(key)
	return ok, nil
}

// Len returns the number of stored items, expired ones included until the
// next cleanup.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
