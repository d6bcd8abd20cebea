package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyFetchOrigin       = "fetch.origin"
	keyFetchRate         = "fetch.requests_per_second"
	keyFetchBurst        = "fetch.burst"
	keyFetchMaxTries     = "fetch.max_tries"
	keyFetchBackoffUnit  = "fetch.backoff_unit"
	keyFetchTimeout      = "fetch.timeout"
	keyOverlapWindow     = "sync.overlap_window"
	keyRecentMax         = "sync.recent_max"
	keyDiscoveryMaxPages = "sync.discovery_max_pages"
	keyPopularPerYear    = "sync.popular_per_year"
	keyPopularPerGenre   = "sync.popular_per_genre"
	keyYearBatchSize     = "sync.year_batch_size"
	keyFirstYear         = "sync.first_year"
	keyMetadataLimit     = "sync.metadata_limit"
	keyMetadataDir       = "metadata.dir"
)

// settingKind tells Set how to validate a value before storing it.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindDuration
)

var settingKinds = map[string]settingKind{
	keyFetchOrigin:       kindString,
	keyFetchRate:         kindFloat,
	keyFetchBurst:        kindInt,
	keyFetchMaxTries:     kindInt,
	keyFetchBackoffUnit:  kindDuration,
	keyFetchTimeout:      kindDuration,
	keyOverlapWindow:     kindDuration,
	keyRecentMax:         kindInt,
	keyDiscoveryMaxPages: kindInt,
	keyPopularPerYear:    kindInt,
	keyPopularPerGenre:   kindInt,
	keyYearBatchSize:     kindInt,
	keyFirstYear:         kindInt,
	keyMetadataLimit:     kindInt,
	keyMetadataDir:       kindString,
}

// SettingKeys returns every key accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or unparsable
// values fall back to their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Fetch: domain.FetchSettings{
			Origin:            s.getString(keyFetchOrigin, defaults.Fetch.Origin),
			RequestsPerSecond: s.getFloat(keyFetchRate, defaults.Fetch.RequestsPerSecond),
			Burst:             s.getInt(keyFetchBurst, defaults.Fetch.Burst),
			MaxTries:          s.getInt(keyFetchMaxTries, defaults.Fetch.MaxTries),
			BackoffUnit:       s.getDuration(keyFetchBackoffUnit, defaults.Fetch.BackoffUnit),
			Timeout:           s.getDuration(keyFetchTimeout, defaults.Fetch.Timeout),
		},
		Sync: domain.SyncSettings{
			OverlapWindow:     s.getDuration(keyOverlapWindow, defaults.Sync.OverlapWindow),
			RecentMax:         s.getInt(keyRecentMax, defaults.Sync.RecentMax),
			DiscoveryMaxPages: s.getInt(keyDiscoveryMaxPages, defaults.Sync.DiscoveryMaxPages),
			PopularPerYear:    s.getInt(keyPopularPerYear, defaults.Sync.PopularPerYear),
			PopularPerGenre:   s.getInt(keyPopularPerGenre, defaults.Sync.PopularPerGenre),
			YearBatchSize:     s.getInt(keyYearBatchSize, defaults.Sync.YearBatchSize),
			FirstYear:         s.getInt(keyFirstYear, defaults.Sync.FirstYear),
			MetadataLimit:     s.getInt(keyMetadataLimit, defaults.Sync.MetadataLimit),
		},
		MetadataDir: s.configStore.GetString(keyMetadataDir),
	}

	return settings, nil
}

// Set validates and stores a single setting.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	stored, err := normalise(kind, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Reset removes a stored setting so its default applies again.
func (s *SettingsService) Reset(key string) error {
	if _, ok := settingKinds[key]; !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
	if err := s.configStore.Delete(key); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}

// Keys returns every key accepted by Set, sorted.
func (s *SettingsService) Keys() []string {
	return SettingKeys()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// normalise converts a raw value, usually a command line string, into the
// type stored for its kind.
func normalise(kind settingKind, value any) (any, error) {
	raw := strings.TrimSpace(fmt.Sprint(value))
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%q is not a positive integer: %w", raw, domain.ErrInvalidInput)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%q is not a non-negative number: %w", raw, domain.ErrInvalidInput)
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%q is not a positive duration: %w", raw, domain.ErrInvalidInput)
		}
		return d.String(), nil
	default:
		if raw == "" {
			return nil, fmt.Errorf("empty value: %w", domain.ErrInvalidInput)
		}
		return raw, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.GetFloat(key)
	if !ok || val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := s.parseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	// Master switch
	if _, exists := s.configStore.Get("scheduler.enabled"); exists {
		defaults.Enabled = s.configStore.GetBool("scheduler.enabled")
	}

	// TOML keys use underscores.
	for taskID := range defaults.TaskConfigs {
		prefix := "scheduler." + strings.ReplaceAll(taskID, "-", "_") + "."

		taskCfg := defaults.TaskConfigs[taskID]

		if _, exists := s.configStore.Get(prefix + "enabled"); exists {
			taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
		}

		// Duration strings like "45m" or "1h".
		if interval := s.configStore.GetString(prefix + "interval"); interval != "" {
			if d, err := s.parseDuration(interval); err == nil && d > 0 {
				taskCfg.Interval = d
			}
		}

		defaults.TaskConfigs[taskID] = taskCfg
	}

	return defaults
}

// parseDuration parses a duration string.
func (s *SettingsService) parseDuration(str string) (time.Duration, error) {
	return time.ParseDuration(str)
}
