// Package metrics holds the Prometheus collectors for sync and ingestion.
// Collectors are registered with the default registry on package init and
// exposed by the scheduler's metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync attempt metrics

	SyncAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_sync_attempts_total",
			Help: "Total number of sync attempts closed, by type and terminal status",
		},
		[]string{"type", "status"},
	)

	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_sync_records_total",
			Help: "Total number of records reported synced by completed attempts",
		},
		[]string{"type"},
	)

	SyncAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmsync_sync_attempt_duration_seconds",
			Help:    "Duration of closed sync attempts in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"type"},
	)

	UnfinishedAttemptsCleared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_unfinished_attempts_cleared_total",
			Help: "Total number of abandoned attempts removed by recovery sweeps",
		},
		[]string{"trigger"},
	)

	// Fetch metrics

	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_fetch_requests_total",
			Help: "Total number of page requests, by outcome (success, retryable, terminal, rejected)",
		},
		[]string{"outcome"},
	)

	FetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmsync_fetch_retries_total",
			Help: "Total number of fetch retries after transient network errors",
		},
	)

	// Walker metrics

	WalkerPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_walker_pages_total",
			Help: "Total number of pages processed by the pagination walker",
		},
		[]string{"mode"},
	)

	WalkerStopsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_walker_stops_total",
			Help: "Total number of walks ended, by mode and stop reason",
		},
		[]string{"mode", "reason"},
	)

	// Queue metrics

	BatchClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_batch_claims_total",
			Help: "Total number of claim calls, by result (claimed, empty, mismatch)",
		},
		[]string{"result"},
	)

	ClaimedItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filmsync_claimed_items_total",
			Help: "Total number of work items claimed into batches",
		},
	)

	// Scheduler metrics

	SchedulerTaskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_scheduler_task_runs_total",
			Help: "Total number of scheduled task runs, by task and outcome",
		},
		[]string{"task", "outcome"},
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "filmsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmsync_circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker, by result",
		},
		[]string{"name", "result"},
	)
)
