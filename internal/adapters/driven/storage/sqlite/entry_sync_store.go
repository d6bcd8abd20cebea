package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
)

// entrySyncRequestStore implements driven.EntrySyncRequestStore.
type entrySyncRequestStore struct {
	store *Store
}

var _ driven.EntrySyncRequestStore = (*entrySyncRequestStore)(nil)

const requestColumns = `id, user_id, status, kind, page, last_page_processed, batch_id,
	request_date, start_date, end_date, last_updated, notes`

// Create inserts a request and assigns its ID.
func (s *entrySyncRequestStore) Create(ctx context.Context, req *domain.EntrySyncRequest) error {
	if req == nil {
		return domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO entry_sync_requests (
			user_id, status, kind, page, last_page_processed, batch_id,
			request_date, start_date, end_date, last_updated, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.UserID, string(req.Status), string(req.Kind), req.Page, req.LastPageProcessed,
		nullString(req.BatchID), formatTime(req.RequestDate), formatTime(req.StartDate),
		formatTime(req.EndDate), formatTime(req.LastUpdated), nullString(req.Notes))
	if err != nil {
		return fmt.Errorf("inserting entry sync request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading request id: %w", err)
	}
	req.ID = id
	return nil
}

// Save updates an existing request.
func (s *entrySyncRequestStore) Save(ctx context.Context, req *domain.EntrySyncRequest) error {
	if req == nil {
		return domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE entry_sync_requests SET
			user_id = ?, status = ?, kind = ?, page = ?, last_page_processed = ?,
			batch_id = ?, request_date = ?, start_date = ?, end_date = ?,
			last_updated = ?, notes = ?
		WHERE id = ?
	`, req.UserID, string(req.Status), string(req.Kind), req.Page, req.LastPageProcessed,
		nullString(req.BatchID), formatTime(req.RequestDate), formatTime(req.StartDate),
		formatTime(req.EndDate), formatTime(req.LastUpdated), nullString(req.Notes), req.ID)
	if err != nil {
		return fmt.Errorf("saving entry sync request: %w", err)
	}
	return mustAffect(res, fmt.Sprintf("save entry sync request %d", req.ID))
}

// Get retrieves a request by ID.
func (s *entrySyncRequestStore) Get(ctx context.Context, id int64) (*domain.EntrySyncRequest, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM entry_sync_requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return req, err
}

// ClaimRequested moves every requested item to queued under batchID. The
// single UPDATE is atomic in SQLite, so two claimers can never both take a row.
func (s *entrySyncRequestStore) ClaimRequested(ctx context.Context, batchID string, now time.Time) (int64, error) {
	if batchID == "" {
		return 0, domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE entry_sync_requests
		SET status = ?, batch_id = ?, last_updated = ?
		WHERE status = ?
	`, string(domain.EntrySyncQueued), batchID, formatTime(now), string(domain.EntrySyncRequested))
	if err != nil {
		return 0, fmt.Errorf("claiming entry sync requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("claiming entry sync requests: %w", err)
	}
	return n, nil
}

// ListByBatch returns the queued items carrying batchID.
func (s *entrySyncRequestStore) ListByBatch(ctx context.Context, batchID string) ([]domain.EntrySyncRequest, error) {
	return s.query(ctx, `
		SELECT `+requestColumns+` FROM entry_sync_requests
		WHERE batch_id = ? AND status = ?
		ORDER BY request_date ASC, id ASC
	`, batchID, string(domain.EntrySyncQueued))
}

// ListByStatus returns items in a status, oldest request first.
func (s *entrySyncRequestStore) ListByStatus(
	ctx context.Context,
	status domain.EntrySyncStatus,
	limit int,
) ([]domain.EntrySyncRequest, error) {
	return s.query(ctx, `
		SELECT `+requestColumns+` FROM entry_sync_requests
		WHERE status = ?
		ORDER BY request_date ASC, id ASC
		LIMIT ?
	`, string(status), sqlLimit(limit))
}

func (s *entrySyncRequestStore) query(ctx context.Context, q string, args ...any) ([]domain.EntrySyncRequest, error) {
	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entry sync requests: %w", err)
	}
	defer rows.Close()

	var reqs []domain.EntrySyncRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry sync requests: %w", err)
	}
	return reqs, nil
}

func scanRequest(row rowScanner) (*domain.EntrySyncRequest, error) {
	var r domain.EntrySyncRequest
	var status, kind string
	var batchID, requestDate, startDate, endDate, lastUpdated, notes sql.NullString

	err := row.Scan(&r.ID, &r.UserID, &status, &kind, &r.Page, &r.LastPageProcessed,
		&batchID, &requestDate, &startDate, &endDate, &lastUpdated, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entry sync request: %w", err)
	}

	r.Status = domain.EntrySyncStatus(status)
	r.Kind = domain.EntrySyncKind(kind)
	r.BatchID = batchID.String
	r.RequestDate = parseTime(requestDate)
	r.StartDate = parseTime(startDate)
	r.EndDate = parseTime(endDate)
	r.LastUpdated = parseTime(lastUpdated)
	r.Notes = notes.String
	return &r, nil
}
