package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
)

// syncAttemptStore implements driven.SyncAttemptStore.
type syncAttemptStore struct {
	store *Store
}

var _ driven.SyncAttemptStore = (*syncAttemptStore)(nil)

const attemptColumns = `id, sync_trigger, type, username, status, started, finished,
	num_synced, secondary_id, error_message`

// Create inserts a new attempt.
func (s *syncAttemptStore) Create(ctx context.Context, attempt *domain.SyncAttempt) error {
	if attempt == nil || attempt.ID == "" {
		return domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_attempts (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, attemptArgs(attempt)...)
	if err != nil {
		return fmt.Errorf("inserting sync attempt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sync attempt %s: %w", attempt.ID, domain.ErrAlreadyExists)
	}
	return nil
}

// Save updates an existing attempt.
func (s *syncAttemptStore) Save(ctx context.Context, attempt *domain.SyncAttempt) error {
	if attempt == nil {
		return domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE sync_attempts SET
			sync_trigger = ?, type = ?, username = ?, status = ?, started = ?,
			finished = ?, num_synced = ?, secondary_id = ?, error_message = ?
		WHERE id = ?
	`, string(attempt.Trigger), string(attempt.Type), attempt.Username, string(attempt.Status),
		formatTime(attempt.Started), formatTime(attempt.Finished), attempt.NumSynced,
		nullString(attempt.SecondaryID), nullString(attempt.ErrorMessage), attempt.ID)
	if err != nil {
		return fmt.Errorf("saving sync attempt: %w", err)
	}
	return mustAffect(res, "save sync attempt "+attempt.ID)
}

// Get retrieves an attempt by ID.
func (s *syncAttemptStore) Get(ctx context.Context, id string) (*domain.SyncAttempt, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM sync_attempts WHERE id = ?`, id)
	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return attempt, err
}

// FindOverlapping returns attempts matching the overlap query.
func (s *syncAttemptStore) FindOverlapping(
	ctx context.Context,
	query driven.OverlapQuery,
) ([]domain.SyncAttempt, error) {
	where := []string{"sync_trigger = ?", "type = ?", "username = ?", "id != ?", "started >= ?"}
	args := []any{
		string(query.Trigger), string(query.Type), query.Username, query.ExcludeID,
		query.StartedAfter.UTC().Format(timeLayout),
	}
	if len(query.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(query.Statuses))+")")
		for _, st := range query.Statuses {
			args = append(args, string(st))
		}
	}

	return s.query(ctx, `
		SELECT `+attemptColumns+` FROM sync_attempts
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY started DESC, id DESC
	`, args...)
}

// LatestFinished returns the most recently finished attempt of a type with status.
func (s *syncAttemptStore) LatestFinished(
	ctx context.Context,
	syncType domain.SyncType,
	status domain.SyncStatus,
) (*domain.SyncAttempt, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+attemptColumns+` FROM sync_attempts
		WHERE type = ? AND status = ? AND finished IS NOT NULL
		ORDER BY finished DESC
		LIMIT 1
	`, string(syncType), string(status))
	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return attempt, err
}

// List returns attempts ordered by start time descending.
func (s *syncAttemptStore) List(ctx context.Context, filter domain.SyncAttemptFilter) ([]domain.SyncAttempt, error) {
	var where []string
	var args []any
	if filter.Trigger != "" {
		where = append(where, "sync_trigger = ?")
		args = append(args, string(filter.Trigger))
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	q := `SELECT ` + attemptColumns + ` FROM sync_attempts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, sqlLimit(filter.Limit), max(filter.Offset, 0))

	return s.query(ctx, q, args...)
}

// DeleteUnfinished removes pending and in-progress attempts for a trigger.
func (s *syncAttemptStore) DeleteUnfinished(ctx context.Context, trigger domain.SyncTrigger) (int64, error) {
	statuses := domain.UnfinishedStatuses()
	args := []any{string(trigger)}
	for _, st := range statuses {
		args = append(args, string(st))
	}

	res, err := s.store.db.ExecContext(ctx, `
		DELETE FROM sync_attempts
		WHERE sync_trigger = ? AND status IN (`+placeholders(len(statuses))+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting unfinished attempts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting unfinished attempts: %w", err)
	}
	return n, nil
}

func (s *syncAttemptStore) query(ctx context.Context, q string, args ...any) ([]domain.SyncAttempt, error) {
	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sync attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.SyncAttempt //nolint:prealloc // size unknown from query
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync attempts: %w", err)
	}
	return attempts, nil
}

func attemptArgs(a *domain.SyncAttempt) []any {
	return []any{
		a.ID, string(a.Trigger), string(a.Type), a.Username, string(a.Status),
		formatTime(a.Started), formatTime(a.Finished), a.NumSynced,
		nullString(a.SecondaryID), nullString(a.ErrorMessage),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*domain.SyncAttempt, error) {
	var a domain.SyncAttempt
	var trigger, syncType, status string
	var started, finished, secondaryID, errorMessage sql.NullString

	err := row.Scan(&a.ID, &trigger, &syncType, &a.Username, &status,
		&started, &finished, &a.NumSynced, &secondaryID, &errorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sync attempt: %w", err)
	}

	a.Trigger = domain.SyncTrigger(trigger)
	a.Type = domain.SyncType(syncType)
	a.Status = domain.SyncStatus(status)
	a.Started = parseTime(started)
	a.Finished = parseTime(finished)
	a.SecondaryID = secondaryID.String
	a.ErrorMessage = errorMessage.String
	return &a, nil
}
