package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
)

// Ensure EntrySyncRequestStore implements the interface.
var _ driven.EntrySyncRequestStore = (*EntrySyncRequestStore)(nil)

// EntrySyncRequestStore is an in-memory implementation of driven.EntrySyncRequestStore.
// ClaimRequested holds the write lock for the whole scan so concurrent claims
// see each other's updates.
type EntrySyncRequestStore struct {
	mu       sync.RWMutex
	nextID   int64
	requests map[int64]domain.EntrySyncRequest
}

// NewEntrySyncRequestStore creates a new in-memory request store.
func NewEntrySyncRequestStore() *EntrySyncRequestStore {
	return &EntrySyncRequestStore{
		requests: make(map[int64]domain.EntrySyncRequest),
	}
}

// Create inserts a request and assigns its ID.
func (s *EntrySyncRequestStore) Create(_ context.Context, req *domain.EntrySyncRequest) error {
	if req == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	req.ID = s.nextID
	s.requests[req.ID] = *req
	return nil
}

// Save updates an existing request.
func (s *EntrySyncRequestStore) Save(_ context.Context, req *domain.EntrySyncRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return domain.ErrNoRowsAffected
	}
	s.requests[req.ID] = *req
	return nil
}

// Get retrieves a request by ID.
func (s *EntrySyncRequestStore) Get(_ context.Context, id int64) (*domain.EntrySyncRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &req, nil
}

// ClaimRequested moves every requested item to queued under batchID.
func (s *EntrySyncRequestStore) ClaimRequested(_ context.Context, batchID string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, req := range s.requests {
		if req.Status != domain.EntrySyncRequested {
			continue
		}
		req.Status = domain.EntrySyncQueued
		req.BatchID = batchID
		req.LastUpdated = now
		s.requests[id] = req
		n++
	}
	return n, nil
}

// ListByBatch returns the queued items carrying batchID.
func (s *EntrySyncRequestStore) ListByBatch(_ context.Context, batchID string) ([]domain.EntrySyncRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.EntrySyncRequest
	for _, req := range s.requests {
		if req.BatchID == batchID && req.Status == domain.EntrySyncQueued {
			result = append(result, req)
		}
	}
	sortRequests(result)
	return result, nil
}

// ListByStatus returns items in a status, oldest request first.
func (s *EntrySyncRequestStore) ListByStatus(
	_ context.Context,
	status domain.EntrySyncStatus,
	limit int,
) ([]domain.EntrySyncRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.EntrySyncRequest
	for _, req := range s.requests {
		if req.Status == status {
			result = append(result, req)
		}
	}
	sortRequests(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortRequests(reqs []domain.EntrySyncRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].RequestDate.Equal(reqs[j].RequestDate) {
			return reqs[i].ID < reqs[j].ID
		}
		return reqs[i].RequestDate.Before(reqs[j].RequestDate)
	})
}
