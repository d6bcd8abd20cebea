package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "filmsync.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	assert.Contains(t, store.Path(), filepath.Join(".filmsync", "data", "filmsync.db"))
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "nested", "path", "to", "db")

	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	tables := []string{
		"sync_attempts",
		"entry_sync_requests",
		"users",
		"film_entries",
		"collections",
		"movies",
		"movie_credits",
		"popular_movies",
		"film_lists",
		"scheduled_tasks",
		"task_results",
	}
	for _, table := range tables {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNewStore_Pragmas(t *testing.T) {
	store := setupTestStore(t)

	var fkEnabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled)

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestStore_Close(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

func TestStore_InterfaceGetters(t *testing.T) {
	store := setupTestStore(t)

	assert.NotNil(t, store.SyncAttemptStore())
	assert.NotNil(t, store.EntrySyncRequestStore())
	assert.NotNil(t, store.UserStore())
	assert.NotNil(t, store.FilmEntryStore())
	assert.NotNil(t, store.MovieStore())
	assert.NotNil(t, store.PopularMovieStore())
	assert.NotNil(t, store.FilmListStore())
	assert.NotNil(t, store.SchedulerStore())
}

// ==================== Helper Function Tests ====================

func TestFormatTime(t *testing.T) {
	assert.Nil(t, formatTime(time.Time{}))
	assert.Nil(t, formatTimePtr(nil))

	local := time.Date(2024, 3, 1, 9, 30, 0, 5, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-03-01T08:30:00.000000005Z", formatTime(local))

	// Fixed width keeps lexical order equal to time order.
	early := formatTime(time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)).(string)
	late := formatTime(time.Date(2024, 3, 1, 8, 30, 0, 100, time.UTC)).(string)
	assert.Less(t, early, late)
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime(sql.NullString{}).IsZero())
	assert.True(t, parseTime(sql.NullString{String: "garbage", Valid: true}).IsZero())
	assert.Nil(t, parseTimePtr(sql.NullString{}))

	want := time.Date(2024, 3, 1, 8, 30, 0, 5, time.UTC)
	got := parseTime(sql.NullString{String: formatTime(want).(string), Valid: true})
	assert.True(t, want.Equal(got))
}

func TestBoolToInt(t *testing.T) {
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullString(""))
	assert.Equal(t, "hello", nullString("hello"))

	assert.Nil(t, nullInt64(nil))
	n := int64(7)
	assert.Equal(t, int64(7), nullInt64(&n))

	assert.Nil(t, nullBool(nil))
	yes := true
	assert.Equal(t, 1, nullBool(&yes))

	assert.Nil(t, boolPtr(sql.NullInt64{}))
	assert.True(t, *boolPtr(sql.NullInt64{Int64: 1, Valid: true}))
	assert.Nil(t, floatPtr(sql.NullFloat64{}))
}

func TestSQLHelpers(t *testing.T) {
	assert.Equal(t, -1, sqlLimit(0))
	assert.Equal(t, 5, sqlLimit(5))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
