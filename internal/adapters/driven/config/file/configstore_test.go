package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".filmsync", "config.toml"), store.Path())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[fetch\nburst = "), 0600))

	_, err := NewConfigStore(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set("fetch.origin", "letterboxd.com"))
	require.NoError(t, store.Set("fetch.max_tries", 5))
	require.NoError(t, store.Set("fetch.requests_per_second", 1.5))
	require.NoError(t, store.Set("scheduler.enabled", true))

	assert.Equal(t, "letterboxd.com", store.GetString("fetch.origin"))
	assert.Equal(t, 5, store.GetInt("fetch.max_tries"))
	assert.True(t, store.GetBool("scheduler.enabled"))

	f, ok := store.GetFloat("fetch.requests_per_second")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, f, 1e-9)

	f, ok = store.GetFloat("fetch.max_tries")
	assert.True(t, ok)
	assert.InDelta(t, 5.0, f, 1e-9)

	// Wrong types and missing keys read as zero values.
	assert.Equal(t, "", store.GetString("fetch.max_tries"))
	assert.Equal(t, 0, store.GetInt("fetch.origin"))
	assert.False(t, store.GetBool("fetch.origin"))
	_, ok = store.GetFloat("fetch.origin")
	assert.False(t, ok)
	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_Set_EmptyKey(t *testing.T) {
	store := newStore(t)
	assert.Error(t, store.Set("", "x"))
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("fetch.max_tries", 3))
	require.NoError(t, store.Set("fetch.backoff_unit", "2s"))
	require.NoError(t, store.Set("scheduler.entry_queue.interval", "5m"))
	require.NoError(t, store.Set("metadata.dir", "/var/lib/tmdb"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[fetch]")
	assert.Contains(t, string(raw), "[scheduler.entry_queue]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.GetInt("fetch.max_tries"))
	assert.Equal(t, "2s", reloaded.GetString("fetch.backoff_unit"))
	assert.Equal(t, "5m", reloaded.GetString("scheduler.entry_queue.interval"))
	assert.Equal(t, "/var/lib/tmdb", reloaded.GetString("metadata.dir"))
	assert.Equal(t, store.Keys(), reloaded.Keys())
}

func TestConfigStore_LeafAndTableShareAPrefix(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("scheduler", "on"))
	require.NoError(t, store.Set("scheduler.enabled", true))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "on", reloaded.GetString("scheduler"))
	assert.True(t, reloaded.GetBool("scheduler.enabled"))
}

func TestConfigStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("sync.recent_max", 10))
	require.NoError(t, store.Delete("sync.recent_max"))
	require.NoError(t, store.Delete("never.set"))

	_, ok := store.Get("sync.recent_max")
	assert.False(t, ok)

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Keys())
}

func TestConfigStore_Load_PicksUpExternalEdits(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("fetch.burst", 4))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[fetch]\nburst = 9\n"), 0600))
	require.NoError(t, store.Load())

	assert.Equal(t, 9, store.GetInt("fetch.burst"))
}

func TestConfigStore_Load_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("fetch.origin", "letterboxd.com"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Save_FailureRollsBack(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("fetch.burst", 4))

	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0700) })

	assert.Error(t, store.Set("fetch.burst", 8))
	assert.Error(t, store.Set("fetch.origin", "example.com"))

	assert.Equal(t, 4, store.GetInt("fetch.burst"))
	_, ok := store.Get("fetch.origin")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("sync.recent_max", n+1)
			_ = store.GetInt("sync.recent_max")
		}(i)
	}
	wg.Wait()

	assert.Positive(t, store.GetInt("sync.recent_max"))
}

func TestNest(t *testing.T) {
	got := nest(map[string]any{
		"a":     1,
		"a.b":   2,
		"c.d.e": 3,
		"c.f":   4,
	})

	assert.Equal(t, map[string]any{
		"a":   1,
		"a.b": 2,
		"c": map[string]any{
			"d": map[string]any{"e": 3},
			"f": 4,
		},
	}, got)
	assert.Equal(t, map[string]any{"a": 1, "a.b": 2, "c.d.e": 3, "c.f": 4}, flatten(got, ""))
}
