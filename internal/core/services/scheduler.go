package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
	"github.com/custodia-labs/filmsync/internal/metrics"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// SchedulerJobs are the services the scheduler runs. A nil service disables
// the tasks that need it.
type SchedulerJobs struct {
	Tracker  driving.SyncTracker
	Queue    driving.EntryQueue
	Metadata driving.MetadataSync
	Popular  driving.PopularSync
}

// Scheduler manages background task execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	store driven.SchedulerStore
	cfg   domain.SchedulerConfig
	jobs  SchedulerJobs
	tick  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	running bool
	busy    map[string]bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	cfg domain.SchedulerConfig,
	store driven.SchedulerStore,
	jobs SchedulerJobs,
) *Scheduler {
	return &Scheduler{
		cfg:   cfg,
		store: store,
		jobs:  jobs,
		tick:  time.Minute,
		now:   time.Now,
		busy:  make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled. Attempts left unfinished by a previous process are
// cleared before any task runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if s.jobs.Tracker != nil {
		if n, err := s.jobs.Tracker.ClearUnfinished(ctx, domain.SyncTriggerSystem); err != nil {
			logger.Warn("scheduler: failed to clear unfinished attempts: %v", err)
		} else if n > 0 {
			logger.Info("scheduler: cleared %d unfinished attempt(s)", n)
		}
	}

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// Reconfigure swaps the configuration and applies it to stored tasks.
// Tasks already running finish under the old settings.
func (s *Scheduler) Reconfigure(ctx context.Context, cfg domain.SchedulerConfig) error {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return s.initialiseTasks(ctx)
}

// Tasks lists the stored tasks and their last run state.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	return s.store.ListTasks(ctx)
}

func (s *Scheduler) config() domain.SchedulerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// initialiseTasks ensures every enabled task exists in the store and
// disables stored tasks whose configuration turned them off.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	cfg := s.config()
	for id, name := range domain.TaskNames() {
		taskCfg := cfg.GetTaskConfig(id)
		if !taskCfg.Enabled {
			if err := s.disableTask(ctx, id); err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}
			continue
		}
		if err := s.ensureTask(ctx, id, name, taskCfg); err != nil {
			return fmt.Errorf("task %s: %w", id, err)
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) disableTask(ctx context.Context, id string) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil || task == nil || !task.Enabled {
		return err
	}
	task.Enabled = false
	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	if !s.config().Enabled {
		return
	}

	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task in the background. A task still running
// from an earlier tick is not started again.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.busy[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.busy[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.busy, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: s.now(),
		}

		action, err := s.dispatch(task.ID)
		if err != nil {
			logger.Warn("scheduler: %v", err)
			return
		}
		res, err := action(ctx)
		result.ItemsProcessed = res.SyncedCount

		result.EndedAt = s.now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
			logger.Warn("scheduler: task %s failed: %v", task.ID, err)
			metrics.SchedulerTaskRunsTotal.WithLabelValues(task.ID, "failed").Inc()
		} else {
			metrics.SchedulerTaskRunsTotal.WithLabelValues(task.ID, "success").Inc()
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		saveCtx := context.WithoutCancel(ctx)
		if saveErr := s.store.SaveTask(saveCtx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		if recordErr := s.store.RecordResult(saveCtx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		if pruneErr := s.store.PruneHistory(saveCtx, historyRetention); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// dispatch resolves a task ID to the job it runs.
func (s *Scheduler) dispatch(taskID string) (driving.ActionFunc, error) {
	var action driving.ActionFunc
	switch taskID {
	case domain.TaskIDEntryQueue:
		if s.jobs.Queue != nil {
			action = s.jobs.Queue.Drain
		}
	case domain.TaskIDEntriesMissingMovies:
		if s.jobs.Metadata != nil {
			action = s.jobs.Metadata.EntriesMissingMovies
		}
	case domain.TaskIDPopularMissingMovies:
		if s.jobs.Metadata != nil {
			action = s.jobs.Metadata.PopularMissingMovies
		}
	case domain.TaskIDMovieCollections:
		if s.jobs.Metadata != nil {
			action = s.jobs.Metadata.Collections
		}
	case domain.TaskIDMovieCredits:
		if s.jobs.Metadata != nil {
			action = s.jobs.Metadata.Credits
		}
	case domain.TaskIDPopularByYear:
		if s.jobs.Popular != nil {
			action = func(ctx context.Context) (domain.ActionResult, error) {
				return s.jobs.Popular.ByYear(ctx, driving.PopularYearOptions{})
			}
		}
	case domain.TaskIDPopularByGenre:
		if s.jobs.Popular != nil {
			action = s.jobs.Popular.ByGenre
		}
	default:
		return nil, fmt.Errorf("unknown task ID: %s", taskID)
	}
	if action == nil {
		return nil, fmt.Errorf("task %s: no service configured", taskID)
	}
	return action, nil
}
