package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
	"github.com/custodia-labs/filmsync/internal/metrics"
)

// Ensure SyncTracker implements the interface.
var _ driving.SyncTracker = (*SyncTracker)(nil)

// DefaultOverlapWindow is how far back Queue looks for unfinished peers.
const DefaultOverlapWindow = 10 * time.Minute

// SyncTracker records the lifecycle of sync attempts in the attempt store.
// The overlap check is advisory: concurrent callers may both create attempts
// and see each other, and the caller decides what to do about it.
type SyncTracker struct {
	store         driven.SyncAttemptStore
	overlapWindow time.Duration

	now   func() time.Time
	newID func() string
}

// NewSyncTracker creates a tracker. A non-positive window uses DefaultOverlapWindow.
func NewSyncTracker(store driven.SyncAttemptStore, overlapWindow time.Duration) *SyncTracker {
	if overlapWindow <= 0 {
		overlapWindow = DefaultOverlapWindow
	}
	return &SyncTracker{
		store:         store,
		overlapWindow: overlapWindow,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// Queue creates a pending attempt and lists unfinished attempts for the same
// trigger, type and owner that started within the overlap window.
func (t *SyncTracker) Queue(
	ctx context.Context,
	trigger domain.SyncTrigger,
	syncType domain.SyncType,
	username string,
) (*driving.QueueResult, error) {
	now := t.now()
	attempt := domain.NewSyncAttempt(t.newID(), trigger, syncType, username, now)
	if err := t.store.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	peers, err := t.store.FindOverlapping(ctx, driven.OverlapQuery{
		Trigger:      trigger,
		Type:         syncType,
		Username:     username,
		ExcludeID:    attempt.ID,
		StartedAfter: now.Add(-t.overlapWindow),
		Statuses:     domain.UnfinishedStatuses(),
	})
	if err != nil {
		return nil, fmt.Errorf("find overlapping attempts: %w", err)
	}

	if len(peers) > 0 {
		logger.Debug("Attempt %s (%s) overlaps %d unfinished attempt(s)", attempt.ID, syncType, len(peers))
	}

	return &driving.QueueResult{Attempt: attempt, InProgress: peers}, nil
}

// Start marks the attempt in progress.
func (t *SyncTracker) Start(ctx context.Context, attempt *domain.SyncAttempt) error {
	if err := attempt.Start(t.now()); err != nil {
		return err
	}
	if err := t.store.Save(ctx, attempt); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	logger.Debug("Started %s attempt %s", attempt.Type, attempt.ID)
	return nil
}

// Skip closes the attempt as skipped.
func (t *SyncTracker) Skip(ctx context.Context, attempt *domain.SyncAttempt) error {
	if err := attempt.Skip(t.now()); err != nil {
		return err
	}
	if err := t.store.Save(ctx, attempt); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	t.observe(attempt)
	logger.Info("Skipped %s attempt %s", attempt.Type, attempt.ID)
	return nil
}

// End closes the attempt with the given outcome.
func (t *SyncTracker) End(ctx context.Context, attempt *domain.SyncAttempt, opts domain.EndOptions) error {
	if err := attempt.End(t.now(), opts); err != nil {
		return err
	}
	if err := t.store.Save(ctx, attempt); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	t.observe(attempt)
	if attempt.Status == domain.SyncStatusFailed {
		logger.Warn("%s attempt %s failed: %s", attempt.Type, attempt.ID, attempt.ErrorMessage)
	} else {
		logger.Info("%s attempt %s complete, %d synced", attempt.Type, attempt.ID, attempt.NumSynced)
	}
	return nil
}

// ManageAction runs fn under a new attempt. The attempt is closed exactly
// once whether fn returns, fails or panics. A failure is recorded on the
// attempt and the original error is returned to the caller unchanged.
func (t *SyncTracker) ManageAction(
	ctx context.Context,
	req driving.ManagedRequest,
	fn driving.ActionFunc,
) (domain.ActionResult, error) {
	queued, err := t.Queue(ctx, req.Trigger, req.Type, req.Username)
	if err != nil {
		return domain.ActionResult{}, err
	}
	return t.run(ctx, queued.Attempt, fn)
}

// RunQueued queues an attempt and applies policy when Queue reports peers.
// Under OverlapSkip the attempt is closed as skipped and fn never runs.
func (t *SyncTracker) RunQueued(
	ctx context.Context,
	req driving.ManagedRequest,
	policy driving.OverlapPolicy,
	fn driving.ActionFunc,
) (domain.ActionResult, error) {
	queued, err := t.Queue(ctx, req.Trigger, req.Type, req.Username)
	if err != nil {
		return domain.ActionResult{}, err
	}

	if len(queued.InProgress) > 0 && policy == driving.OverlapSkip {
		if err := t.Skip(context.WithoutCancel(ctx), queued.Attempt); err != nil {
			return domain.ActionResult{}, err
		}
		return domain.ActionResult{Skipped: true}, nil
	}

	return t.run(ctx, queued.Attempt, fn)
}

// run starts attempt, runs fn and closes the attempt with its outcome.
// Closing writes ignore cancellation of ctx so a cancelled sync is still recorded.
func (t *SyncTracker) run(
	ctx context.Context,
	attempt *domain.SyncAttempt,
	fn driving.ActionFunc,
) (result domain.ActionResult, err error) {
	closeCtx := context.WithoutCancel(ctx)

	if err := t.Start(ctx, attempt); err != nil {
		t.closeFailed(closeCtx, attempt, err.Error())
		return domain.ActionResult{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			t.closeFailed(closeCtx, attempt, fmt.Sprintf("panic: %v", r))
			panic(r)
		}
	}()

	result, err = fn(ctx)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "unknown error"
		}
		t.closeFailed(closeCtx, attempt, msg)
		return result, err
	}

	endErr := t.End(closeCtx, attempt, domain.EndOptions{
		NumSynced:   result.SyncedCount,
		SecondaryID: result.SecondaryID,
	})
	if endErr != nil {
		return result, fmt.Errorf("close attempt: %w", endErr)
	}
	return result, nil
}

// closeFailed records a failure. A store error here cannot be surfaced
// without masking the action's own error, so it is logged.
func (t *SyncTracker) closeFailed(ctx context.Context, attempt *domain.SyncAttempt, msg string) {
	if err := t.End(ctx, attempt, domain.EndOptions{ErrorMessage: msg}); err != nil {
		logger.Error(err, "failed to record failure of attempt %s", attempt.ID)
	}
}

// ClearUnfinished deletes pending and in-progress attempts for a trigger.
// It is a recovery sweep for attempts abandoned by a crash and must not run
// while syncs for that trigger are in flight.
func (t *SyncTracker) ClearUnfinished(ctx context.Context, trigger domain.SyncTrigger) (int64, error) {
	n, err := t.store.DeleteUnfinished(ctx, trigger)
	if err != nil {
		return 0, fmt.Errorf("delete unfinished attempts: %w", err)
	}
	metrics.UnfinishedAttemptsCleared.WithLabelValues(string(trigger)).Add(float64(n))
	if n > 0 {
		logger.Info("Cleared %d unfinished %s attempt(s)", n, trigger)
	}
	return n, nil
}

// LatestComplete returns the last complete attempt of a type, or nil.
func (t *SyncTracker) LatestComplete(ctx context.Context, syncType domain.SyncType) (*domain.SyncAttempt, error) {
	attempt, err := t.store.LatestFinished(ctx, syncType, domain.SyncStatusComplete)
	if err != nil {
		return nil, fmt.Errorf("latest complete attempt: %w", err)
	}
	return attempt, nil
}

// List returns recorded attempts, most recent first.
func (t *SyncTracker) List(ctx context.Context, filter domain.SyncAttemptFilter) ([]domain.SyncAttempt, error) {
	attempts, err := t.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func (t *SyncTracker) observe(attempt *domain.SyncAttempt) {
	metrics.SyncAttemptsTotal.WithLabelValues(string(attempt.Type), string(attempt.Status)).Inc()
	if attempt.Status == domain.SyncStatusComplete {
		metrics.SyncRecordsTotal.WithLabelValues(string(attempt.Type)).Add(float64(attempt.NumSynced))
	}
	metrics.SyncAttemptDuration.WithLabelValues(string(attempt.Type)).Observe(attempt.Duration().Seconds())
}
