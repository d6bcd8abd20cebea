package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
	"github.com/custodia-labs/filmsync/internal/metrics"
)

// Ensure EntryQueue implements the interface.
var _ driving.EntryQueue = (*EntryQueue)(nil)

// EntryQueue claims requested entry syncs in batches and runs them.
type EntryQueue struct {
	store   driven.EntrySyncRequestStore
	watches driving.WatchSync

	now        func() time.Time
	newBatchID func() string
}

// NewEntryQueue creates an entry queue that runs claimed requests through watches.
func NewEntryQueue(store driven.EntrySyncRequestStore, watches driving.WatchSync) *EntryQueue {
	return &EntryQueue{
		store:      store,
		watches:    watches,
		now:        func() time.Time { return time.Now().UTC() },
		newBatchID: uuid.NewString,
	}
}

// Request records that a user's entries should be synced.
func (q *EntryQueue) Request(
	ctx context.Context,
	userID int64,
	kind domain.EntrySyncKind,
) (*domain.EntrySyncRequest, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user id %d: %w", userID, domain.ErrInvalidInput)
	}
	if kind == "" {
		kind = domain.EntrySyncRecent
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("sync kind %q: %w", kind, domain.ErrInvalidInput)
	}

	now := q.now()
	req := &domain.EntrySyncRequest{
		UserID:      userID,
		Status:      domain.EntrySyncRequested,
		Kind:        kind,
		Page:        1,
		RequestDate: now,
		LastUpdated: now,
	}
	if err := q.store.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	logger.Debug("Requested %s entry sync %d for user %d", kind, req.ID, userID)
	return req, nil
}

// ClaimRequested moves every requested item into a fresh batch.
// Returns an empty slice and no error when there was nothing to claim.
func (q *EntryQueue) ClaimRequested(ctx context.Context) ([]domain.EntrySyncRequest, error) {
	batchID := q.newBatchID()

	affected, err := q.store.ClaimRequested(ctx, batchID, q.now())
	if err != nil {
		metrics.BatchClaimsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("claim requested: %w", err)
	}
	if affected == 0 {
		metrics.BatchClaimsTotal.WithLabelValues("empty").Inc()
		return []domain.EntrySyncRequest{}, nil
	}

	batch, err := q.store.ListByBatch(ctx, batchID)
	if err != nil {
		metrics.BatchClaimsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list batch %s: %w", batchID, err)
	}
	if int64(len(batch)) != affected {
		metrics.BatchClaimsTotal.WithLabelValues("mismatch").Inc()
		return nil, fmt.Errorf("batch %s: claimed %d, read back %d: %w",
			batchID, affected, len(batch), domain.ErrBatchMismatch)
	}

	metrics.BatchClaimsTotal.WithLabelValues("claimed").Inc()
	metrics.ClaimedItemsTotal.Add(float64(affected))
	logger.Info("Claimed %d entry sync request(s) as batch %s", affected, batchID)
	return batch, nil
}

// ProcessBatch runs each claimed request in order. A failed request is marked
// failed with its error in Notes and does not stop the batch. Returns the
// number of requests that completed, and the joined store errors if any
// request could not be updated.
func (q *EntryQueue) ProcessBatch(ctx context.Context, batch []domain.EntrySyncRequest) (int, error) {
	var (
		done     int
		storeErr []error
	)

	for i := range batch {
		req := &batch[i]
		if err := ctx.Err(); err != nil {
			return done, errors.Join(append(storeErr, err)...)
		}

		req.Status = domain.EntrySyncInProgress
		req.StartDate = q.now()
		req.LastUpdated = req.StartDate
		if err := q.store.Save(ctx, req); err != nil {
			storeErr = append(storeErr, fmt.Errorf("mark request %d in progress: %w", req.ID, err))
			// A claimed item left queued would never be claimed again.
			if failErr := q.fail(ctx, req, fmt.Sprintf("not started: %v", err)); failErr != nil {
				storeErr = append(storeErr, failErr)
			}
			continue
		}

		result, syncErr := q.run(ctx, req)

		req.EndDate = q.now()
		req.LastUpdated = req.EndDate
		if result.LastPage > 0 {
			req.LastPageProcessed = result.LastPage
		}
		if syncErr != nil {
			req.Status = domain.EntrySyncFailed
			req.Notes = syncErr.Error()
			logger.Warn("Entry sync request %d for user %d failed: %v", req.ID, req.UserID, syncErr)
		} else {
			req.Status = domain.EntrySyncDone
			req.Notes = fmt.Sprintf("synced %d", result.SyncedCount)
			if result.Skipped {
				req.Notes = "skipped: sync already in progress"
			}
			done++
		}

		if err := q.store.Save(context.WithoutCancel(ctx), req); err != nil {
			storeErr = append(storeErr, fmt.Errorf("close request %d: %w", req.ID, err))
		}
	}

	return done, errors.Join(storeErr...)
}

// Drain claims one batch and processes it. The batch id is reported as the
// secondary id so the run can be correlated with its items.
func (q *EntryQueue) Drain(ctx context.Context) (domain.ActionResult, error) {
	batch, err := q.ClaimRequested(ctx)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if len(batch) == 0 {
		logger.Debug("No entry sync requests to process")
		return domain.ActionResult{}, nil
	}

	done, err := q.ProcessBatch(ctx, batch)
	return domain.ActionResult{SyncedCount: done, SecondaryID: batch[0].BatchID}, err
}

func (q *EntryQueue) run(ctx context.Context, req *domain.EntrySyncRequest) (domain.ActionResult, error) {
	kind := req.Kind
	if kind == "" {
		kind = domain.EntrySyncRecent
	}
	return q.watches.SyncFrom(ctx, domain.SyncTriggerSystem, req.UserID, kind, req.Page)
}

// fail closes req as failed with notes.
func (q *EntryQueue) fail(ctx context.Context, req *domain.EntrySyncRequest, notes string) error {
	req.Status = domain.EntrySyncFailed
	req.Notes = notes
	req.EndDate = q.now()
	req.LastUpdated = req.EndDate
	if err := q.store.Save(context.WithoutCancel(ctx), req); err != nil {
		return fmt.Errorf("mark request %d failed: %w", req.ID, err)
	}
	return nil
}
