package domain

import (
	"fmt"
	"time"
)

// SyncTrigger identifies who initiated a sync attempt.
type SyncTrigger string

// Available sync triggers.
const (
	// SyncTriggerSystem is an automated run (scheduler, sweeps).
	SyncTriggerSystem SyncTrigger = "system"

	// SyncTriggerUser is a run started by an end user action.
	SyncTriggerUser SyncTrigger = "user"
)

// IsValid returns true if the trigger is recognised.
func (t SyncTrigger) IsValid() bool {
	return t == SyncTriggerSystem || t == SyncTriggerUser
}

// SyncType tags what a sync attempt is synchronising.
// The set is open: stores persist the raw string.
type SyncType string

// Known sync types.
const (
	SyncTypeUnknown              SyncType = "Unknown"
	SyncTypeNone                 SyncType = "None"
	SyncTypeUserRatings          SyncType = "User:Ratings"
	SyncTypeUserLists            SyncType = "User:Lists"
	SyncTypeRatingsMovies        SyncType = "Ratings:Movies"
	SyncTypeEntriesMissingMovies SyncType = "Entries:Missing_Movies"
	SyncTypeMoviesCast           SyncType = "Movies:Cast"
	SyncTypeMoviesCrew           SyncType = "Movies:Crew"
	SyncTypeMoviesCredits        SyncType = "Movies:Credits"
	SyncTypeMoviesCollections    SyncType = "Movies:Collections"
	SyncTypePopularByYear        SyncType = "Popular_Movies:By_Year"
	SyncTypePopularByGenre       SyncType = "Popular_Movies:By_Genre"
	SyncTypePopularMovies        SyncType = "Popular_Movies:Movies"
)

// SyncStatus is the lifecycle state of a sync attempt.
type SyncStatus string

// Available sync statuses.
const (
	SyncStatusPending    SyncStatus = "Pending"
	SyncStatusInProgress SyncStatus = "In Progress"
	SyncStatusComplete   SyncStatus = "Complete"
	SyncStatusSkipped    SyncStatus = "Skipped"
	SyncStatusFailed     SyncStatus = "Failed"
)

// IsTerminal returns true once the status can no longer change.
func (s SyncStatus) IsTerminal() bool {
	switch s {
	case SyncStatusComplete, SyncStatusSkipped, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// UnfinishedStatuses lists the statuses swept by a recovery pass
// and matched by the overlap check.
func UnfinishedStatuses() []SyncStatus {
	return []SyncStatus{SyncStatusPending, SyncStatusInProgress}
}

// SyncAttempt is one tracked execution of a sync job.
type SyncAttempt struct {
	// ID is the unique identifier for the attempt.
	ID string

	// Trigger records who started the attempt.
	Trigger SyncTrigger

	// Type identifies what is being synced.
	Type SyncType

	// Username is the owner the attempt is scoped to, empty for catalog syncs.
	Username string

	// Status is the current lifecycle state.
	Status SyncStatus

	// Started is when work began. Zero until stamped.
	Started time.Time

	// Finished is set iff Status is terminal.
	Finished time.Time

	// NumSynced is the number of records the attempt synced.
	NumSynced int

	// SecondaryID is a free-form correlation id, such as a year range.
	SecondaryID string

	// ErrorMessage is set iff Status is SyncStatusFailed.
	ErrorMessage string
}

// NewSyncAttempt creates a pending attempt stamped with its creation time.
func NewSyncAttempt(id string, trigger SyncTrigger, syncType SyncType, username string, now time.Time) *SyncAttempt {
	return &SyncAttempt{
		ID:       id,
		Trigger:  trigger,
		Type:     syncType,
		Username: username,
		Status:   SyncStatusPending,
		Started:  now,
	}
}

// EndOptions carries the outcome recorded by SyncAttempt.End.
type EndOptions struct {
	// Type replaces the attempt type when non-empty.
	Type SyncType

	// NumSynced replaces the count when positive.
	NumSynced int

	// SecondaryID always replaces the correlation id, including with "".
	SecondaryID string

	// ErrorMessage marks the attempt failed when non-empty.
	ErrorMessage string
}

// Start moves the attempt to in progress and re-stamps Started.
func (a *SyncAttempt) Start(now time.Time) error {
	if a.Status.IsTerminal() {
		return fmt.Errorf("start %s: %w", a.ID, ErrSyncFinished)
	}
	a.Status = SyncStatusInProgress
	a.Started = now
	return nil
}

// Skip closes the attempt without doing any work.
func (a *SyncAttempt) Skip(now time.Time) error {
	if a.Status.IsTerminal() {
		return fmt.Errorf("skip %s: %w", a.ID, ErrSyncFinished)
	}
	a.Status = SyncStatusSkipped
	a.Finished = now
	a.NumSynced = 0
	a.ErrorMessage = ""
	return nil
}

// End closes the attempt as complete, or as failed when opts carries an error message.
func (a *SyncAttempt) End(now time.Time, opts EndOptions) error {
	if a.Status.IsTerminal() {
		return fmt.Errorf("end %s: %w", a.ID, ErrSyncFinished)
	}
	if opts.Type != "" {
		a.Type = opts.Type
	}
	if opts.NumSynced > 0 {
		a.NumSynced = opts.NumSynced
	}
	if opts.ErrorMessage != "" {
		a.Status = SyncStatusFailed
		a.ErrorMessage = opts.ErrorMessage
	} else {
		a.Status = SyncStatusComplete
		a.ErrorMessage = ""
	}
	a.SecondaryID = opts.SecondaryID
	a.Finished = now
	return nil
}

// Duration returns how long the attempt ran, or zero while unfinished.
func (a *SyncAttempt) Duration() time.Duration {
	if a.Finished.IsZero() || a.Started.IsZero() {
		return 0
	}
	return a.Finished.Sub(a.Started)
}

// ActionResult is what a managed unit of work reports back to the tracker.
type ActionResult struct {
	// SyncedCount is recorded as the attempt's NumSynced.
	SyncedCount int

	// SecondaryID is recorded as the attempt's correlation id.
	SecondaryID string

	// Skipped is true when the work was not run because of an overlapping attempt.
	Skipped bool

	// LastPage is the last listing page fully processed. Zero for jobs that
	// do not walk a paged listing, and for runs that failed or were skipped.
	LastPage int
}

// SyncAttemptFilter narrows an attempt listing. Zero fields match everything.
type SyncAttemptFilter struct {
	Trigger SyncTrigger
	Type    SyncType
	Status  SyncStatus
	Limit   int
	Offset  int
}
