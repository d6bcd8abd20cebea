package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync of the same kind is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrSyncFinished indicates a transition was attempted on an attempt
	// that has already reached a terminal status.
	ErrSyncFinished = errors.New("sync already finished")

	// ErrMetadataUnavailable indicates the metadata API client is not configured
	// or is refusing requests. Credit and collection syncs are disabled.
	ErrMetadataUnavailable = errors.New("metadata service unavailable")

	// Ingestion Errors.

	// ErrOriginNotAllowed indicates a fetch targeted a host other than the allow-listed origin.
	ErrOriginNotAllowed = errors.New("origin not allowed")

	// ErrExceededRetries indicates a fetch kept failing with transient errors
	// until the retry budget ran out.
	ErrExceededRetries = errors.New("exceeded max tries")

	// ErrMissingIdentity indicates a scraped record lacks the fields needed
	// to deduplicate it against the store.
	ErrMissingIdentity = errors.New("missing record identity")

	// ErrNothingSynced indicates a best-effort batch attempted items but none succeeded.
	ErrNothingSynced = errors.New("nothing synced")

	// Storage Invariant Errors.

	// ErrBatchMismatch indicates the rows read back for a claimed batch do not
	// match the number of rows the claim affected.
	ErrBatchMismatch = errors.New("claimed batch mismatch")

	// ErrNoRowsAffected indicates a write that must touch a row touched none.
	ErrNoRowsAffected = errors.New("no rows affected")
)

// ItemError is a failure of a single item inside a best-effort batch.
type ItemError struct {
	ID  int64
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.ID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
