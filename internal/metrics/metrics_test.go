package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSyncAttemptsTotal_Labels(t *testing.T) {
	c := SyncAttemptsTotal.WithLabelValues("User:Ratings", "Complete")
	before := testutil.ToFloat64(c)

	c.Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestFetchRetriesTotal(t *testing.T) {
	before := testutil.ToFloat64(FetchRetriesTotal)

	FetchRetriesTotal.Add(3)

	assert.Equal(t, before+3, testutil.ToFloat64(FetchRetriesTotal))
}

func TestCircuitBreakerState_Gauge(t *testing.T) {
	g := CircuitBreakerState.WithLabelValues("metadata-test")

	g.Set(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(g))

	g.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(g))
}

func TestWalkerStopsTotal_CountsSeries(t *testing.T) {
	WalkerStopsTotal.WithLabelValues("discovery", "empty_page").Inc()
	WalkerStopsTotal.WithLabelValues("incremental", "item_cap").Inc()

	assert.GreaterOrEqual(t, testutil.CollectAndCount(WalkerStopsTotal), 2)
}
