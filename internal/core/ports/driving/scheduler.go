package driving

import (
	"context"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// Scheduler runs managed syncs on intervals, such as popular movie walks
// and metadata gap filling.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Reconfigure applies new task settings without a restart.
	Reconfigure(ctx context.Context, cfg domain.SchedulerConfig) error

	// Tasks lists the known tasks with their last and next run.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)
}
