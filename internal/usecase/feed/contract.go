package feed

import (
	"context"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/definition"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/session"
)

// Engine executes content queries.
type Engine interface {
	Execute(ctx context.Context, q query.Descriptor) (result.ExecutedQuery, error)
	Terms(ctx context.Context, taxonomy string) ([]result.Term, error)
	Lookup(ctx context.Context, ids []string) ([]result.Item, error)
}

// SessionStore persists feed sessions between requests.
type SessionStore interface {
	// Create allocates a session with a fresh id. Nothing is written until Persist.
	Create(q query.Descriptor) *session.Session
	Load(ctx context.Context, id string) (*session.Session, error)
	Persist(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
}

// Definitions resolves configured feeds by name.
type Definitions interface {
	Get(name string) (definition.Feed, bool)
}

// Nonces issues and verifies anti-forgery tokens bound to a session.
type Nonces interface {
	Issue(sessionID string) (string, error)
	Verify(token, sessionID string) error
}

// Recorder receives feed metrics.
type Recorder interface {
	QueryExecuted(feed string, seconds float64, failed bool)
	SessionMissed(feed string)
	PersistFailed(feed string)
}

type nopRecorder struct{}

func (nopRecorder) QueryExecuted(string, float64, bool) {}
func (nopRecorder) SessionMissed(string)                {}
func (nopRecorder) PersistFailed(string)                {}
