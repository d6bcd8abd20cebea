package domain

import "time"

// EntrySyncStatus is the lifecycle state of a queued entry sync request.
type EntrySyncStatus string

// Available entry sync statuses.
const (
	EntrySyncRequested  EntrySyncStatus = "requested"
	EntrySyncQueued     EntrySyncStatus = "queued"
	EntrySyncInProgress EntrySyncStatus = "in_progress"
	EntrySyncDone       EntrySyncStatus = "done"
	EntrySyncFailed     EntrySyncStatus = "failed"
)

// EntrySyncKind selects how much of a user's history a request covers.
type EntrySyncKind string

// Available entry sync kinds.
const (
	// EntrySyncRecent syncs new activity only, stopping at the first known entry.
	EntrySyncRecent EntrySyncKind = "recent"

	// EntrySyncAll walks a user's full history.
	EntrySyncAll EntrySyncKind = "all"
)

// IsValid returns true if the kind is recognised.
func (k EntrySyncKind) IsValid() bool {
	return k == EntrySyncRecent || k == EntrySyncAll
}

// EntrySyncRequest is a work item asking for a user's entries to be synced.
// BatchID is set once the request has been claimed and is shared by every
// request claimed in the same batch.
type EntrySyncRequest struct {
	ID                int64
	UserID            int64
	Status            EntrySyncStatus
	Kind              EntrySyncKind
	Page              int
	LastPageProcessed int
	BatchID           string
	RequestDate       time.Time
	StartDate         time.Time
	EndDate           time.Time
	LastUpdated       time.Time
	Notes             string
}

// User is a local account linked to a remote profile.
type User struct {
	// ID is the local user identifier.
	ID int64

	// Username is the remote profile name used to build page URLs.
	Username string

	// LastEntriesUpdated is when the user's entries were last synced.
	LastEntriesUpdated time.Time
}
