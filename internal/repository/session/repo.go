package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/archivefeed/internal/db"
	"github.com/kailas-cloud/archivefeed/internal/domain"
	domsession "github.com/kailas-cloud/archivefeed/internal/domain/feed/session"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
)

// DefaultKeyPrefix namespaces session records in a shared store.
const DefaultKeyPrefix = "archivefeed:session:"

// DefaultTTL is the sliding expiry applied on every persist.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for session records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/feed.SessionStore on any key-value backend.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
	newID  func() string
}

// New creates a session repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: DefaultKeyPrefix, ttl: DefaultTTL, newID: uuid.NewString}
}

// WithTTL overrides the sliding expiry. A ttl <= 0 keeps the default.
func (r *Repo) WithTTL(ttl time.Duration) *Repo {
	if ttl > 0 {
		r.ttl = ttl
	}
	return r
}

// WithKeyPrefix overrides the record key prefix.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// Create allocates a session with a fresh id. Nothing is written until Persist.
func (r *Repo) Create(q query.Descriptor) *domsession.Session {
	return domsession.New(r.newID(), q)
}

// Load reads the session stored under id.
func (r *Repo) Load(ctx context.Context, id string) (*domsession.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}

	data, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var s domsession.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.ID == "" {
		s.ID = id
	}
	return &s, nil
}

// Persist replaces the stored record and refreshes its TTL.
func (r *Repo) Persist(ctx context.Context, s *domsession.Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("%w: session id is empty", domain.ErrPersistFailure)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: encode session %s: %w", domain.ErrPersistFailure, s.ID, err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(s.ID), data, r.ttl); err != nil {
		return fmt.Errorf("%w: write session %s: %w", domain.ErrPersistFailure, s.ID, err)
	}
	return nil
}

// Delete removes the stored record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}
