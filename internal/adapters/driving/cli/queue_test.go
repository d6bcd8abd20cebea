package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

func TestQueueRequest(t *testing.T) {
	jobs := &mockJobs{}
	out, err := run(t, jobServices(jobs), "queue", "request", "3", "--kind", "all")
	require.NoError(t, err)

	assert.Equal(t, "Request", jobs.last().name)
	assert.Equal(t, []any{int64(3), domain.EntrySyncAll}, jobs.last().args)
	assert.Contains(t, out, "Requested all entry sync 9 for user 3.")
}

func TestQueueRequest_DefaultsToRecent(t *testing.T) {
	jobs := &mockJobs{}
	_, err := run(t, jobServices(jobs), "queue", "request", "3")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), domain.EntrySyncRecent}, jobs.last().args)
}

func TestQueueRequest_InvalidKind(t *testing.T) {
	jobs := &mockJobs{}
	_, err := run(t, jobServices(jobs), "queue", "request", "3", "--kind", "diary")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, jobs.calls)
}

func TestQueueProcess(t *testing.T) {
	jobs := &mockJobs{result: domain.ActionResult{SyncedCount: 2, SecondaryID: "b-1"}}
	out, err := run(t, jobServices(jobs), "queue", "process")
	require.NoError(t, err)
	assert.Equal(t, "Drain", jobs.last().name)
	assert.Contains(t, out, "Batch b-1: 2 request(s) completed.")
}

func TestQueueProcess_NothingRequested(t *testing.T) {
	out, err := run(t, jobServices(&mockJobs{}), "queue", "process")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing requested.")
}

func TestQueue_NotConfigured(t *testing.T) {
	_, err := run(t, Services{}, "queue", "process")
	assert.EqualError(t, err, "entry queue not configured")
}
