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

// schedulerStore implements driven.SchedulerStore over scheduled_tasks and
// task_results. Intervals are stored in whole seconds.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const taskColumns = `id, name, interval_seconds, last_run, next_run, last_error,
	last_success, enabled`

const resultColumns = `task_id, started_at, ended_at, success, error, items_processed`

// GetTask returns nil and no error when no task has the given ID.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	task, err := scanTask(s.store.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

// ListTasks returns every task ordered by ID.
func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled tasks: %w", err)
	}
	return collectRows(rows, scanTask)
}

// SaveTask upserts by ID.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled
	`, taskArgs(task)...)
	if err != nil {
		return fmt.Errorf("upserting task %s: %w", task.ID, err)
	}
	return nil
}

// DeleteTask drops a task together with its run history.
func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete task: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, q := range []string{
		`DELETE FROM task_results WHERE task_id = ?`,
		`DELETE FROM scheduled_tasks WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, taskID); err != nil {
			return fmt.Errorf("deleting task %s: %w", taskID, err)
		}
	}
	return tx.Commit()
}

// RecordResult appends one run to the task's history.
func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx,
		`INSERT INTO task_results (`+resultColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		result.TaskID, formatTime(result.StartedAt), formatTime(result.EndedAt),
		boolToInt(result.Success), nullString(result.Error), result.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("recording run of %s: %w", result.TaskID, err)
	}
	return nil
}

// GetTaskHistory returns up to limit runs, newest first. A limit of zero or
// less returns every run.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+resultColumns+` FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, taskID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying history of %s: %w", taskID, err)
	}
	return collectRows(rows, scanTaskResult)
}

// PruneHistory keeps the newest keep runs of each task and deletes the rest.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY task_id ORDER BY started_at DESC, id DESC
				) AS rn
				FROM task_results
			) WHERE rn <= ?
		)
	`, max(keep, 0))
	if err != nil {
		return fmt.Errorf("pruning task history: %w", err)
	}
	return nil
}

func taskArgs(t *domain.ScheduledTask) []any {
	return []any{
		t.ID, t.Name, int64(t.Interval / time.Second),
		formatTime(t.LastRun), formatTime(t.NextRun), nullString(t.LastError),
		formatTime(t.LastSuccess), boolToInt(t.Enabled),
	}
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var t domain.ScheduledTask
	var seconds int64
	var lastRun, nextRun, lastError, lastSuccess sql.NullString
	var enabled int

	err := row.Scan(&t.ID, &t.Name, &seconds, &lastRun, &nextRun,
		&lastError, &lastSuccess, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled task: %w", err)
	}

	t.Interval = time.Duration(seconds) * time.Second
	t.LastRun = parseTime(lastRun)
	t.NextRun = parseTime(nextRun)
	t.LastError = lastError.String
	t.LastSuccess = parseTime(lastSuccess)
	t.Enabled = enabled == 1
	return &t, nil
}

func scanTaskResult(row rowScanner) (*domain.TaskResult, error) {
	var r domain.TaskResult
	var startedAt, endedAt, errMsg sql.NullString
	var success int

	if err := row.Scan(&r.TaskID, &startedAt, &endedAt, &success,
		&errMsg, &r.ItemsProcessed); err != nil {
		return nil, fmt.Errorf("scanning task result: %w", err)
	}

	r.StartedAt = parseTime(startedAt)
	r.EndedAt = parseTime(endedAt)
	r.Success = success == 1
	r.Error = errMsg.String
	return &r, nil
}

// collectRows scans every row with scan and closes rows.
func collectRows[T any](rows *sql.Rows, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer rows.Close()

	var out []T //nolint:prealloc // size unknown from query
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}
