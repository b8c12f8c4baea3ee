package ports

import (
	"context"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// SessionSource provides the sessions of one export or store.
type SessionSource interface {
	// Load returns every session with its bounds. Per-item failures are
	// returned alongside the sessions that did load.
	Load(ctx context.Context) (*LoadResult, error)
	// List returns session metadata; bounds may be absent.
	List(ctx context.Context) ([]domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
}

// LoadResult is the outcome of a full load.
type LoadResult struct {
	Sessions []domain.Session
	// Errors holds one entry per file or row that could not be read.
	Errors []error
	// Origin names where the sessions came from (directory, DSN host).
	Origin string
}

// SessionRepository persists sessions.
type SessionRepository interface {
	SessionSource
	UpsertBatch(ctx context.Context, sessions []domain.Session) error
	Count(ctx context.Context) (int, error)
}
