package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
)

// --- mocks ---

type call struct {
	name string
	args []any
}

// recorder collects calls made by the commands under test.
type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) record(name string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{name: name, args: args})
}

func (r *recorder) last() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return call{}
	}
	return r.calls[len(r.calls)-1]
}

// mockJobs implements every sync service with one canned result.
type mockJobs struct {
	recorder
	result domain.ActionResult
	err    error
}

func (m *mockJobs) SyncRecent(_ context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error) {
	m.record("SyncRecent", trigger, userID)
	return m.result, m.err
}

func (m *mockJobs) SyncAll(_ context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error) {
	m.record("SyncAll", trigger, userID)
	return m.result, m.err
}

func (m *mockJobs) SyncDiary(_ context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error) {
	m.record("SyncDiary", trigger, userID)
	return m.result, m.err
}

func (m *mockJobs) SyncFrom(
	_ context.Context,
	trigger domain.SyncTrigger,
	userID int64,
	kind domain.EntrySyncKind,
	startPage int,
) (domain.ActionResult, error) {
	m.record("SyncFrom", trigger, userID, kind, startPage)
	return m.result, m.err
}

func (m *mockJobs) SyncUserLists(_ context.Context, trigger domain.SyncTrigger, username string) (domain.ActionResult, error) {
	m.record("SyncUserLists", trigger, username)
	return m.result, m.err
}

func (m *mockJobs) ByYear(_ context.Context, opts driving.PopularYearOptions) (domain.ActionResult, error) {
	m.record("ByYear", opts)
	return m.result, m.err
}

func (m *mockJobs) ByGenre(context.Context) (domain.ActionResult, error) {
	m.record("ByGenre")
	return m.result, m.err
}

func (m *mockJobs) Collections(context.Context) (domain.ActionResult, error) {
	m.record("Collections")
	return m.result, m.err
}

func (m *mockJobs) Credits(context.Context) (domain.ActionResult, error) {
	m.record("Credits")
	return m.result, m.err
}

func (m *mockJobs) EntriesMissingMovies(context.Context) (domain.ActionResult, error) {
	m.record("EntriesMissingMovies")
	return m.result, m.err
}

func (m *mockJobs) PopularMissingMovies(context.Context) (domain.ActionResult, error) {
	m.record("PopularMissingMovies")
	return m.result, m.err
}

func (m *mockJobs) Request(_ context.Context, userID int64, kind domain.EntrySyncKind) (*domain.EntrySyncRequest, error) {
	m.record("Request", userID, kind)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.EntrySyncRequest{ID: 9, UserID: userID, Kind: kind}, nil
}

func (m *mockJobs) ClaimRequested(context.Context) ([]domain.EntrySyncRequest, error) {
	m.record("ClaimRequested")
	return nil, m.err
}

func (m *mockJobs) ProcessBatch(_ context.Context, batch []domain.EntrySyncRequest) (int, error) {
	m.record("ProcessBatch", batch)
	return len(batch), m.err
}

func (m *mockJobs) Drain(context.Context) (domain.ActionResult, error) {
	m.record("Drain")
	return m.result, m.err
}

var (
	_ driving.WatchSync    = (*mockJobs)(nil)
	_ driving.ListSync     = (*mockJobs)(nil)
	_ driving.PopularSync  = (*mockJobs)(nil)
	_ driving.MetadataSync = (*mockJobs)(nil)
	_ driving.EntryQueue   = (*mockJobs)(nil)
)

// mockTracker implements driving.SyncTracker, serving List from attempts.
type mockTracker struct {
	recorder
	attempts []domain.SyncAttempt
	cleared  int64
	err      error
}

func (m *mockTracker) Queue(context.Context, domain.SyncTrigger, domain.SyncType, string) (*driving.QueueResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTracker) Start(context.Context, *domain.SyncAttempt) error { return nil }

func (m *mockTracker) Skip(context.Context, *domain.SyncAttempt) error { return nil }

func (m *mockTracker) End(context.Context, *domain.SyncAttempt, domain.EndOptions) error { return nil }

func (m *mockTracker) ManageAction(ctx context.Context, _ driving.ManagedRequest, fn driving.ActionFunc) (domain.ActionResult, error) {
	return fn(ctx)
}

func (m *mockTracker) RunQueued(ctx context.Context, _ driving.ManagedRequest, _ driving.OverlapPolicy, fn driving.ActionFunc) (domain.ActionResult, error) {
	return fn(ctx)
}

func (m *mockTracker) ClearUnfinished(_ context.Context, trigger domain.SyncTrigger) (int64, error) {
	m.record("ClearUnfinished", trigger)
	return m.cleared, m.err
}

func (m *mockTracker) LatestComplete(context.Context, domain.SyncType) (*domain.SyncAttempt, error) {
	return nil, nil
}

func (m *mockTracker) List(_ context.Context, filter domain.SyncAttemptFilter) ([]domain.SyncAttempt, error) {
	m.record("List", filter)
	return m.attempts, m.err
}

var _ driving.SyncTracker = (*mockTracker)(nil)

// --- helpers ---

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command with services installed and returns its output.
func run(t *testing.T, svc Services, args ...string) (string, error) {
	t.Helper()

	SetInitializer(nil)
	SetServices(svc)
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		SetServices(Services{})
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		logger.SetOutput(os.Stderr)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// --- tests ---

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "filmsync", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"sync", "queue", "attempts", "user", "schedule", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestInitialise_CallsInitializerAndCleanup(t *testing.T) {
	jobs := &mockJobs{result: domain.ActionResult{SyncedCount: 1}}
	var gotOpts Options
	cleaned := false

	resetFlags(rootCmd)
	SetInitializer(func(opts Options) (Services, func(), error) {
		gotOpts = opts
		return Services{Metadata: jobs}, func() { cleaned = true }, nil
	})
	t.Cleanup(func() {
		SetInitializer(nil)
		SetServices(Services{})
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--data-dir", "/tmp/data", "--config-dir", "/tmp/cfg", "sync", "collections"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	assert.Equal(t, Options{DataDir: "/tmp/data", ConfigDir: "/tmp/cfg"}, gotOpts)
	assert.True(t, cleaned)
	assert.Contains(t, buf.String(), "Synced 1 collections.")
}

func TestInitialise_InitializerError(t *testing.T) {
	resetFlags(rootCmd)
	SetInitializer(func(Options) (Services, func(), error) {
		return Services{}, nil, errors.New("open database: disk full")
	})
	t.Cleanup(func() {
		SetInitializer(nil)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync", "collections"})
	err := rootCmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestInitialise_VersionSkipsInitializer(t *testing.T) {
	called := false
	resetFlags(rootCmd)
	SetInitializer(func(Options) (Services, func(), error) {
		called = true
		return Services{}, nil, nil
	})
	t.Cleanup(func() {
		SetInitializer(nil)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.False(t, called)
}

func TestResolveLogFormat(t *testing.T) {
	assert.Equal(t, logger.FormatJSON, resolveLogFormat("json", nil))
	assert.Equal(t, logger.FormatConsole, resolveLogFormat("console", nil))
	assert.Equal(t, logger.FormatJSON, resolveLogFormat("auto", nil))

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, logger.FormatJSON, resolveLogFormat("auto", f))
}

func TestRootCmd_InvalidLogFormat(t *testing.T) {
	_, err := run(t, Services{}, "--log-format", "xml", "version")
	assert.Error(t, err)
}

func TestErrNotConfigured(t *testing.T) {
	assert.EqualError(t, errNotConfigured("scheduler"), "scheduler not configured")
}
