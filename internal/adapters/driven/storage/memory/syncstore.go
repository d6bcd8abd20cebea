package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
)

// Ensure SyncAttemptStore implements the interface.
var _ driven.SyncAttemptStore = (*SyncAttemptStore)(nil)

// SyncAttemptStore is an in-memory implementation of driven.SyncAttemptStore.
type SyncAttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.SyncAttempt
}

// NewSyncAttemptStore creates a new in-memory sync attempt store.
func NewSyncAttemptStore() *SyncAttemptStore {
	return &SyncAttemptStore{
		attempts: make(map[string]domain.SyncAttempt),
	}
}

// Create inserts a new attempt.
func (s *SyncAttemptStore) Create(_ context.Context, attempt *domain.SyncAttempt) error {
	if attempt == nil || attempt.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.attempts[attempt.ID] = *attempt
	return nil
}

// Save updates an existing attempt.
func (s *SyncAttemptStore) Save(_ context.Context, attempt *domain.SyncAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; !ok {
		return domain.ErrNoRowsAffected
	}
	s.attempts[attempt.ID] = *attempt
	return nil
}

// Get retrieves an attempt by ID.
func (s *SyncAttemptStore) Get(_ context.Context, id string) (*domain.SyncAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &attempt, nil
}

// FindOverlapping returns attempts matching the overlap query.
func (s *SyncAttemptStore) FindOverlapping(
	_ context.Context,
	query driven.OverlapQuery,
) ([]domain.SyncAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SyncAttempt
	for _, a := range s.attempts {
		if a.ID == query.ExcludeID ||
			a.Trigger != query.Trigger ||
			a.Type != query.Type ||
			a.Username != query.Username {
			continue
		}
		if a.Started.Before(query.StartedAfter) {
			continue
		}
		if len(query.Statuses) > 0 && !slices.Contains(query.Statuses, a.Status) {
			continue
		}
		result = append(result, a)
	}
	sortByStartedDesc(result)
	return result, nil
}

// LatestFinished returns the most recently finished attempt of a type with status.
func (s *SyncAttemptStore) LatestFinished(
	_ context.Context,
	syncType domain.SyncType,
	status domain.SyncStatus,
) (*domain.SyncAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SyncAttempt
	for _, a := range s.attempts {
		if a.Type != syncType || a.Status != status || a.Finished.IsZero() {
			continue
		}
		if latest == nil || a.Finished.After(latest.Finished) {
			found := a
			latest = &found
		}
	}
	return latest, nil
}

// List returns attempts ordered by start time descending.
func (s *SyncAttemptStore) List(_ context.Context, filter domain.SyncAttemptFilter) ([]domain.SyncAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SyncAttempt
	for _, a := range s.attempts {
		if filter.Trigger != "" && a.Trigger != filter.Trigger {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		result = append(result, a)
	}
	sortByStartedDesc(result)

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// DeleteUnfinished removes pending and in-progress attempts for a trigger.
func (s *SyncAttemptStore) DeleteUnfinished(_ context.Context, trigger domain.SyncTrigger) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, a := range s.attempts {
		if a.Trigger == trigger && !a.Status.IsTerminal() {
			delete(s.attempts, id)
			n++
		}
	}
	return n, nil
}

func sortByStartedDesc(attempts []domain.SyncAttempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].Started.Equal(attempts[j].Started) {
			return attempts[i].ID > attempts[j].ID
		}
		return attempts[i].Started.After(attempts[j].Started)
	})
}
