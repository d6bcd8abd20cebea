package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrSyncInProgress", ErrSyncInProgress},
		{"ErrSyncFinished", ErrSyncFinished},
		{"ErrMetadataUnavailable", ErrMetadataUnavailable},
		{"ErrOriginNotAllowed", ErrOriginNotAllowed},
		{"ErrExceededRetries", ErrExceededRetries},
		{"ErrMissingIdentity", ErrMissingIdentity},
		{"ErrNothingSynced", ErrNothingSynced},
		{"ErrBatchMismatch", ErrBatchMismatch},
		{"ErrNoRowsAffected", ErrNoRowsAffected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}

func TestErrBatchMismatch_Wrapped(t *testing.T) {
	err := fmt.Errorf("claim batch b-1: %w (read 2, affected 3)", ErrBatchMismatch)
	assert.True(t, errors.Is(err, ErrBatchMismatch))
	assert.False(t, errors.Is(err, ErrNotFound))
}

// TestErrors_Uniqueness tests that all errors are distinct
func TestErrors_Uniqueness(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrSyncInProgress,
		ErrSyncFinished,
		ErrMetadataUnavailable,
		ErrOriginNotAllowed,
		ErrExceededRetries,
		ErrMissingIdentity,
		ErrNothingSynced,
		ErrBatchMismatch,
		ErrNoRowsAffected,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j {
				assert.False(t, errors.Is(err1, err2), "%v should not match %v", err1, err2)
			}
		}
	}
}

func TestItemError(t *testing.T) {
	err := &ItemError{ID: 603, Err: ErrNotFound}

	assert.Equal(t, "item 603: not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	joined := errors.Join(err, &ItemError{ID: 604, Err: ErrInvalidInput})
	var itemErr *ItemError
	assert.True(t, errors.As(joined, &itemErr))
	assert.Equal(t, int64(603), itemErr.ID)
}
