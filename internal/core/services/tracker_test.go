package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filmsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// newTestTracker returns a tracker with a controllable clock and sequential ids.
func newTestTracker(t *testing.T) (*SyncTracker, *memory.SyncAttemptStore, *time.Time) {
	t.Helper()
	store := memory.NewSyncAttemptStore()
	tracker := NewSyncTracker(store, 10*time.Minute)

	clock := epoch
	tracker.now = func() time.Time { return clock }

	n := 0
	tracker.newID = func() string {
		n++
		return fmt.Sprintf("attempt-%d", n)
	}
	return tracker, store, &clock
}

var ratingsReq = driving.ManagedRequest{
	Trigger:  domain.SyncTriggerUser,
	Type:     domain.SyncTypeUserRatings,
	Username: "alice",
}

func TestNewSyncTracker_DefaultWindow(t *testing.T) {
	tracker := NewSyncTracker(memory.NewSyncAttemptStore(), 0)
	assert.Equal(t, DefaultOverlapWindow, tracker.overlapWindow)
}

func TestSyncTracker_Queue_CreatesPendingAttempt(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	ctx := context.Background()

	res, err := tracker.Queue(ctx, domain.SyncTriggerUser, domain.SyncTypeUserRatings, "alice")
	require.NoError(t, err)
	assert.Empty(t, res.InProgress)
	assert.Equal(t, domain.SyncStatusPending, res.Attempt.Status)
	assert.Equal(t, epoch, res.Attempt.Started)

	stored, err := store.Get(ctx, res.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusPending, stored.Status)
}

func TestSyncTracker_Queue_ReportsOverlap(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	first, err := tracker.Queue(ctx, domain.SyncTriggerUser, domain.SyncTypeUserRatings, "alice")
	require.NoError(t, err)
	require.NoError(t, tracker.Start(ctx, first.Attempt))

	*clock = epoch.Add(5 * time.Minute)
	second, err := tracker.Queue(ctx, domain.SyncTriggerUser, domain.SyncTypeUserRatings, "alice")
	require.NoError(t, err)
	require.Len(t, second.InProgress, 1)
	assert.Equal(t, first.Attempt.ID, second.InProgress[0].ID)

	// A different owner never overlaps.
	other, err := tracker.Queue(ctx, domain.SyncTriggerUser, domain.SyncTypeUserRatings, "bob")
	require.NoError(t, err)
	assert.Empty(t, other.InProgress)
}

func TestSyncTracker_Queue_IgnoresStaleAndFinished(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	stale, err := tracker.Queue(ctx, domain.SyncTriggerUser, domain.SyncTypeUserRatings, "alice")
	require.NoError(t, err)
	require.NoError(t, tracker.Start(ctx, stale.Attempt))

	*clock = epoch.Add(20 * time.Minute)
	done, err := tracker.Queue(ctx, domain.SyncTriggerUser, domain.SyncTypeUserRatings, "alice")
	require.NoError(t, err)
	require.NoError(t, tracker.End(ctx, done.Attempt, domain.EndOptions{}))

	res, err := tracker.Queue(ctx, domain.SyncTriggerUser, domain.SyncTypeUserRatings, "alice")
	require.NoError(t, err)
	assert.Empty(t, res.InProgress)
}

func TestSyncTracker_End_FailureAndSuccess(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	ctx := context.Background()

	ok, err := tracker.Queue(ctx, domain.SyncTriggerSystem, domain.SyncTypePopularByYear, "")
	require.NoError(t, err)
	require.NoError(t, tracker.End(ctx, ok.Attempt, domain.EndOptions{NumSynced: 40, SecondaryID: "1990-2010"}))

	stored, err := store.Get(ctx, ok.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusComplete, stored.Status)
	assert.Equal(t, 40, stored.NumSynced)
	assert.Equal(t, "1990-2010", stored.SecondaryID)
	assert.Equal(t, epoch, stored.Finished)

	bad, err := tracker.Queue(ctx, domain.SyncTriggerSystem, domain.SyncTypePopularByYear, "")
	require.NoError(t, err)
	require.NoError(t, tracker.End(ctx, bad.Attempt, domain.EndOptions{ErrorMessage: "boom"}))

	stored, err = store.Get(ctx, bad.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusFailed, stored.Status)
	assert.Equal(t, "boom", stored.ErrorMessage)
}

func TestSyncTracker_TerminalAttemptRejectsTransitions(t *testing.T) {
	tracker, _, _ := newTestTracker(t)
	ctx := context.Background()

	res, err := tracker.Queue(ctx, domain.SyncTriggerUser, domain.SyncTypeUserLists, "alice")
	require.NoError(t, err)
	require.NoError(t, tracker.Skip(ctx, res.Attempt))

	assert.ErrorIs(t, tracker.Start(ctx, res.Attempt), domain.ErrSyncFinished)
	assert.ErrorIs(t, tracker.End(ctx, res.Attempt, domain.EndOptions{}), domain.ErrSyncFinished)
	assert.ErrorIs(t, tracker.Skip(ctx, res.Attempt), domain.ErrSyncFinished)
}

func TestSyncTracker_ManageAction_Success(t *testing.T) {
	tracker, store, clock := newTestTracker(t)
	ctx := context.Background()

	result, err := tracker.ManageAction(ctx, ratingsReq, func(context.Context) (domain.ActionResult, error) {
		*clock = epoch.Add(time.Minute)
		return domain.ActionResult{SyncedCount: 7, SecondaryID: "page-3"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result.SyncedCount)

	attempts, err := store.List(ctx, domain.SyncAttemptFilter{})
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.SyncStatusComplete, attempts[0].Status)
	assert.Equal(t, 7, attempts[0].NumSynced)
	assert.Equal(t, "page-3", attempts[0].SecondaryID)
	assert.Equal(t, time.Minute, attempts[0].Duration())
}

func TestSyncTracker_ManageAction_ErrorReturnedUnchanged(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	ctx := context.Background()

	sentinel := errors.New("remote went away")
	_, err := tracker.ManageAction(ctx, ratingsReq, func(context.Context) (domain.ActionResult, error) {
		return domain.ActionResult{}, sentinel
	})
	assert.Same(t, sentinel, err)

	attempts, err := store.List(ctx, domain.SyncAttemptFilter{})
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.SyncStatusFailed, attempts[0].Status)
	assert.Equal(t, "remote went away", attempts[0].ErrorMessage)
}

func TestSyncTracker_ManageAction_EmptyErrorMessage(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.ManageAction(ctx, ratingsReq, func(context.Context) (domain.ActionResult, error) {
		return domain.ActionResult{}, errors.New("")
	})
	require.Error(t, err)

	attempts, err := store.List(ctx, domain.SyncAttemptFilter{})
	require.NoError(t, err)
	assert.Equal(t, "unknown error", attempts[0].ErrorMessage)
}

func TestSyncTracker_ManageAction_PanicClosesAttempt(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	ctx := context.Background()

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = tracker.ManageAction(ctx, ratingsReq, func(context.Context) (domain.ActionResult, error) {
			panic("boom")
		})
	})

	attempts, err := store.List(ctx, domain.SyncAttemptFilter{})
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.SyncStatusFailed, attempts[0].Status)
	assert.Equal(t, "panic: boom", attempts[0].ErrorMessage)
}

func TestSyncTracker_ManageAction_CancelledContextStillRecorded(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := tracker.ManageAction(ctx, ratingsReq, func(ctx context.Context) (domain.ActionResult, error) {
		cancel()
		return domain.ActionResult{}, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)

	attempts, err := store.List(context.Background(), domain.SyncAttemptFilter{})
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.SyncStatusFailed, attempts[0].Status)
}

// Every way an action can end leaves exactly one terminal attempt behind.
func TestSyncTracker_ManageAction_AlwaysCloses(t *testing.T) {
	outcomes := map[string]driving.ActionFunc{
		"success": func(context.Context) (domain.ActionResult, error) { return domain.ActionResult{SyncedCount: 1}, nil },
		"error":   func(context.Context) (domain.ActionResult, error) { return domain.ActionResult{}, errors.New("x") },
		"panic":   func(context.Context) (domain.ActionResult, error) { panic(errors.New("y")) },
	}

	for name, fn := range outcomes {
		t.Run(name, func(t *testing.T) {
			tracker, store, _ := newTestTracker(t)
			ctx := context.Background()

			func() {
				defer func() { _ = recover() }()
				_, _ = tracker.ManageAction(ctx, ratingsReq, fn)
			}()

			attempts, err := store.List(ctx, domain.SyncAttemptFilter{})
			require.NoError(t, err)
			require.Len(t, attempts, 1)
			assert.True(t, attempts[0].Status.IsTerminal())
			assert.False(t, attempts[0].Finished.IsZero())
		})
	}
}

func TestSyncTracker_RunQueued_SkipsOnOverlap(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	ctx := context.Background()

	running, err := tracker.Queue(ctx, ratingsReq.Trigger, ratingsReq.Type, ratingsReq.Username)
	require.NoError(t, err)
	require.NoError(t, tracker.Start(ctx, running.Attempt))

	called := false
	result, err := tracker.RunQueued(ctx, ratingsReq, driving.OverlapSkip, func(context.Context) (domain.ActionResult, error) {
		called = true
		return domain.ActionResult{}, nil
	})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.False(t, called)

	skipped, err := store.List(ctx, domain.SyncAttemptFilter{Status: domain.SyncStatusSkipped})
	require.NoError(t, err)
	assert.Len(t, skipped, 1)
}

func TestSyncTracker_RunQueued_ProceedsOnOverlap(t *testing.T) {
	tracker, _, _ := newTestTracker(t)
	ctx := context.Background()

	running, err := tracker.Queue(ctx, ratingsReq.Trigger, ratingsReq.Type, ratingsReq.Username)
	require.NoError(t, err)
	require.NoError(t, tracker.Start(ctx, running.Attempt))

	result, err := tracker.RunQueued(ctx, ratingsReq, driving.OverlapProceed, func(context.Context) (domain.ActionResult, error) {
		return domain.ActionResult{SyncedCount: 2}, nil
	})
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.SyncedCount)
}

func TestSyncTracker_ClearUnfinished(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	ctx := context.Background()

	for range 2 {
		_, err := tracker.Queue(ctx, domain.SyncTriggerSystem, domain.SyncTypeMoviesCredits, "")
		require.NoError(t, err)
	}
	_, err := tracker.ManageAction(ctx, driving.ManagedRequest{
		Trigger: domain.SyncTriggerSystem,
		Type:    domain.SyncTypeMoviesCredits,
	}, func(context.Context) (domain.ActionResult, error) { return domain.ActionResult{}, nil })
	require.NoError(t, err)

	n, err := tracker.ClearUnfinished(ctx, domain.SyncTriggerSystem)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	remaining, err := store.List(ctx, domain.SyncAttemptFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, domain.SyncStatusComplete, remaining[0].Status)
}

func TestSyncTracker_LatestComplete(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	none, err := tracker.LatestComplete(ctx, domain.SyncTypePopularByYear)
	require.NoError(t, err)
	assert.Nil(t, none)

	req := driving.ManagedRequest{Trigger: domain.SyncTriggerSystem, Type: domain.SyncTypePopularByYear}
	for _, secondary := range []string{"1900-1920", "1920-1940"} {
		_, err := tracker.ManageAction(ctx, req, func(context.Context) (domain.ActionResult, error) {
			return domain.ActionResult{SyncedCount: 1, SecondaryID: secondary}, nil
		})
		require.NoError(t, err)
		*clock = clock.Add(time.Hour)
	}

	latest, err := tracker.LatestComplete(ctx, domain.SyncTypePopularByYear)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "1920-1940", latest.SecondaryID)
}
