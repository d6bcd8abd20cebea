package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/logger"
	"github.com/custodia-labs/filmsync/internal/metrics"
)

// Verify interface compliance.
var _ driven.MetadataClient = (*BreakerClient)(nil)

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	Name string

	// MinRequests is the number of calls in a window before the breaker may trip.
	MinRequests uint32

	// FailureRatio trips the breaker once reached.
	FailureRatio float64

	// Interval resets the counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before letting a probe through.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the breaker settings used by the CLI.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "metadata",
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
	}
}

// BreakerClient guards a MetadataClient with a circuit breaker. A movie the
// source does not know counts as a success, so only transport-level failures
// open the circuit. While open, calls fail with domain.ErrMetadataUnavailable
// and the metadata batch stops instead of failing every remaining movie.
type BreakerClient struct {
	client driven.MetadataClient
	cb     *gobreaker.CircuitBreaker[*domain.MovieMetadata]
	name   string
}

// NewBreakerClient wraps client.
func NewBreakerClient(client driven.MetadataClient, cfg BreakerConfig) *BreakerClient {
	defaults := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = defaults.MinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = defaults.FailureRatio
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*domain.MovieMetadata](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logger.Warn("metadata: opening circuit after %d failure(s) in %d request(s)",
					counts.TotalFailures, counts.Requests)
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("metadata: circuit %s -> %s", from, to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerClient{client: client, cb: cb, name: cfg.Name}
}

// GetMovie looks up one movie through the breaker.
func (b *BreakerClient) GetMovie(ctx context.Context, id int64) (*domain.MovieMetadata, error) {
	movie, err := b.cb.Execute(func() (*domain.MovieMetadata, error) {
		return b.client.GetMovie(ctx, id)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		return movie, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrMetadataUnavailable, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
}

// State returns the breaker state, for status output.
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
