package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// OverlapQuery selects attempts that may be doing the same work.
type OverlapQuery struct {
	Trigger      domain.SyncTrigger
	Type         domain.SyncType
	Username     string
	ExcludeID    string
	StartedAfter time.Time
	Statuses     []domain.SyncStatus
}

// SyncAttemptStore persists sync attempts.
type SyncAttemptStore interface {
	// Create inserts a new attempt. The attempt ID must be set.
	Create(ctx context.Context, attempt *domain.SyncAttempt) error

	// Save updates an existing attempt.
	// Returns domain.ErrNoRowsAffected if the attempt does not exist.
	Save(ctx context.Context, attempt *domain.SyncAttempt) error

	// Get retrieves an attempt by ID.
	// Returns domain.ErrNotFound if the attempt does not exist.
	Get(ctx context.Context, id string) (*domain.SyncAttempt, error)

	// FindOverlapping returns attempts matching the overlap query.
	FindOverlapping(ctx context.Context, query OverlapQuery) ([]domain.SyncAttempt, error)

	// LatestFinished returns the most recently finished attempt of a type
	// with the given status, or nil and no error if there is none.
	LatestFinished(ctx context.Context, syncType domain.SyncType, status domain.SyncStatus) (*domain.SyncAttempt, error)

	// List returns attempts ordered by start time descending.
	List(ctx context.Context, filter domain.SyncAttemptFilter) ([]domain.SyncAttempt, error)

	// DeleteUnfinished removes pending and in-progress attempts for a trigger.
	// Returns the number of attempts removed.
	DeleteUnfinished(ctx context.Context, trigger domain.SyncTrigger) (int64, error)
}
