package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// EntrySyncRequestStore persists entry sync work items.
type EntrySyncRequestStore interface {
	// Create inserts a request and assigns its ID.
	Create(ctx context.Context, req *domain.EntrySyncRequest) error

	// Save updates an existing request.
	// Returns domain.ErrNoRowsAffected if the request does not exist.
	Save(ctx context.Context, req *domain.EntrySyncRequest) error

	// Get retrieves a request by ID.
	// Returns domain.ErrNotFound if the request does not exist.
	Get(ctx context.Context, id int64) (*domain.EntrySyncRequest, error)

	// ClaimRequested moves every requested item to queued under batchID in a
	// single conditional update and returns the number of items it affected.
	// Concurrent callers never claim the same item.
	ClaimRequested(ctx context.Context, batchID string, now time.Time) (int64, error)

	// ListByBatch returns the queued items carrying batchID.
	ListByBatch(ctx context.Context, batchID string) ([]domain.EntrySyncRequest, error)

	// ListByStatus returns items in a status, oldest request first.
	ListByStatus(ctx context.Context, status domain.EntrySyncStatus, limit int) ([]domain.EntrySyncRequest, error)
}
