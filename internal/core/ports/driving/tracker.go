package driving

import (
	"context"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// QueueResult is returned by SyncTracker.Queue.
type QueueResult struct {
	// Attempt is the newly created pending attempt.
	Attempt *domain.SyncAttempt

	// InProgress lists other unfinished attempts for the same trigger, type
	// and owner that started within the overlap window.
	InProgress []domain.SyncAttempt
}

// ManagedRequest identifies the attempt a managed action runs under.
type ManagedRequest struct {
	Trigger  domain.SyncTrigger
	Type     domain.SyncType
	Username string
}

// OverlapPolicy decides what RunQueued does when Queue reports peers.
type OverlapPolicy int

// Available overlap policies.
const (
	// OverlapProceed runs the action regardless of peers.
	OverlapProceed OverlapPolicy = iota

	// OverlapSkip records the attempt as skipped and does not run the action.
	OverlapSkip
)

// ActionFunc is a unit of work run under a tracked attempt.
type ActionFunc func(ctx context.Context) (domain.ActionResult, error)

// SyncTracker records sync attempts and their outcomes.
type SyncTracker interface {
	// Queue creates a pending attempt and reports overlapping peers.
	// It never refuses to create the attempt.
	Queue(ctx context.Context, trigger domain.SyncTrigger, syncType domain.SyncType, username string) (*QueueResult, error)

	// Start marks the attempt in progress.
	Start(ctx context.Context, attempt *domain.SyncAttempt) error

	// Skip closes the attempt as skipped.
	Skip(ctx context.Context, attempt *domain.SyncAttempt) error

	// End closes the attempt as complete, or failed when opts has an error message.
	End(ctx context.Context, attempt *domain.SyncAttempt, opts domain.EndOptions) error

	// ManageAction runs fn under a new attempt and closes it exactly once.
	// Errors from fn are recorded and returned unchanged.
	ManageAction(ctx context.Context, req ManagedRequest, fn ActionFunc) (domain.ActionResult, error)

	// RunQueued queues an attempt, applies policy to any overlap, then
	// runs fn like ManageAction.
	RunQueued(ctx context.Context, req ManagedRequest, policy OverlapPolicy, fn ActionFunc) (domain.ActionResult, error)

	// ClearUnfinished deletes pending and in-progress attempts for a trigger.
	ClearUnfinished(ctx context.Context, trigger domain.SyncTrigger) (int64, error)

	// LatestComplete returns the last complete attempt of a type, or nil.
	LatestComplete(ctx context.Context, syncType domain.SyncType) (*domain.SyncAttempt, error)

	// List returns recorded attempts, most recent first.
	List(ctx context.Context, filter domain.SyncAttemptFilter) ([]domain.SyncAttempt, error)
}
