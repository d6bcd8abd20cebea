package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filmsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/filmsync/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Fetch, settings.Fetch)
	assert.Equal(t, defaults.Sync, settings.Sync)
	assert.Empty(t, settings.MetadataDir)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("fetch.origin", "example.org")
	_ = store.Set("fetch.requests_per_second", 0.5)
	_ = store.Set("fetch.max_tries", 3)
	_ = store.Set("fetch.backoff_unit", "250ms")
	_ = store.Set("sync.overlap_window", "30m")
	_ = store.Set("sync.recent_max", int64(50))
	_ = store.Set("metadata.dir", "/var/lib/filmsync/metadata")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "example.org", settings.Fetch.Origin)
	assert.InDelta(t, 0.5, settings.Fetch.RequestsPerSecond, 1e-9)
	assert.Equal(t, 3, settings.Fetch.MaxTries)
	assert.Equal(t, 250*time.Millisecond, settings.Fetch.BackoffUnit)
	assert.Equal(t, 30*time.Minute, settings.Sync.OverlapWindow)
	assert.Equal(t, 50, settings.Sync.RecentMax)
	assert.Equal(t, "/var/lib/filmsync/metadata", settings.MetadataDir)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("fetch.timeout", "soon")
	_ = store.Set("sync.year_batch_size", -4)
	_ = store.Set("fetch.requests_per_second", "fast")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Fetch.Timeout, settings.Fetch.Timeout)
	assert.Equal(t, defaults.Sync.YearBatchSize, settings.Sync.YearBatchSize)
	assert.InDelta(t, defaults.Fetch.RequestsPerSecond, settings.Fetch.RequestsPerSecond, 1e-9)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  any
	}{
		{"int from string", "sync.recent_max", "45", 45},
		{"int", "fetch.burst", 8, 8},
		{"float", "fetch.requests_per_second", "1.5", 1.5},
		{"duration", "fetch.timeout", " 90s ", "1m30s"},
		{"string", "fetch.origin", "letterboxd.com", "letterboxd.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			require.NoError(t, NewSettingsService(store).Set(tt.key, tt.value))

			got, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown key", "search.mode", "hybrid"},
		{"zero int", "sync.recent_max", "0"},
		{"not an int", "fetch.max_tries", "many"},
		{"negative rate", "fetch.requests_per_second", "-1"},
		{"bad duration", "sync.overlap_window", "ten minutes"},
		{"empty origin", "fetch.origin", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			err := NewSettingsService(store).Set(tt.key, tt.value)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			_, ok := store.Get(tt.key)
			assert.False(t, ok)
		})
	}
}

// failingConfigStore fails every write.
type failingConfigStore struct {
	*memory.ConfigStore
}

func (f *failingConfigStore) Set(string, any) error {
	return errors.New("disk full")
}

func TestSettingsService_Set_StoreError(t *testing.T) {
	service := NewSettingsService(&failingConfigStore{memory.NewConfigStore()})

	err := service.Set("sync.recent_max", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSettingsService_Reset(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)
	require.NoError(t, service.Set("fetch.max_tries", "2"))

	require.NoError(t, service.Reset("fetch.max_tries"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFetchSettings().MaxTries, settings.Fetch.MaxTries)
	assert.Empty(t, store.Keys())

	assert.ErrorIs(t, service.Reset("search.mode"), domain.ErrInvalidInput)
}

func TestSettingKeys(t *testing.T) {
	keys := SettingKeys()
	assert.Len(t, keys, len(settingKinds))
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "fetch.origin")
	assert.Equal(t, keys, NewSettingsService(memory.NewConfigStore()).Keys())
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_GetSchedulerConfig_Defaults(t *testing.T) {
	cfg := NewSettingsService(memory.NewConfigStore()).GetSchedulerConfig()
	assert.Equal(t, domain.DefaultSchedulerConfig(), cfg)
}

func TestSettingsService_GetSchedulerConfig_Overrides(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("scheduler.enabled", false)
	_ = store.Set("scheduler.popular_by_genre.enabled", true)
	_ = store.Set("scheduler.popular_by_genre.interval", "12h")
	_ = store.Set("scheduler.entry_queue.interval", "not-a-duration")

	cfg := NewSettingsService(store).GetSchedulerConfig()

	assert.False(t, cfg.Enabled)
	genre := cfg.GetTaskConfig(domain.TaskIDPopularByGenre)
	assert.True(t, genre.Enabled)
	assert.Equal(t, 12*time.Hour, genre.Interval)
	assert.Equal(t, 5*time.Minute, cfg.GetTaskConfig(domain.TaskIDEntryQueue).Interval)
}
