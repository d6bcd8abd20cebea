package domain

import "time"

// FetchSettings configures the resilient page fetcher.
type FetchSettings struct {
	// Origin is the only host pages may be fetched from.
	Origin string

	// RequestsPerSecond caps the request rate. Zero or less disables the limit.
	RequestsPerSecond float64

	// Burst is the number of requests allowed above the steady rate.
	Burst int

	// MaxTries bounds attempts per fetch, including the first.
	MaxTries int

	// BackoffUnit is the base wait; retries wait 2, 4, 8, 16 units.
	BackoffUnit time.Duration

	// Timeout bounds a single request.
	Timeout time.Duration
}

// SyncSettings holds limits for the sync jobs.
type SyncSettings struct {
	// OverlapWindow is how far back queued attempts look for in-flight peers.
	OverlapWindow time.Duration

	// RecentMax caps a recent-activity sync.
	RecentMax int

	// DiscoveryMaxPages caps forward catalog walks.
	DiscoveryMaxPages int

	// PopularPerYear caps movies collected per year page walk.
	PopularPerYear int

	// PopularPerGenre caps movies collected per genre page walk.
	PopularPerGenre int

	// YearBatchSize is the number of years covered by one popular-by-year run.
	YearBatchSize int

	// FirstYear is where popular-by-year starts without a previous run.
	FirstYear int

	// MetadataLimit caps the movies loaded by one metadata batch.
	MetadataLimit int
}

// AppSettings aggregates all user-configurable settings.
type AppSettings struct {
	Fetch FetchSettings
	Sync  SyncSettings

	// MetadataDir points the file metadata client at exported API responses.
	MetadataDir string
}

// DefaultFetchSettings returns the fetcher defaults.
func DefaultFetchSettings() FetchSettings {
	return FetchSettings{
		Origin:            "letterboxd.com",
		RequestsPerSecond: 2,
		Burst:             4,
		MaxTries:          5,
		BackoffUnit:       time.Second,
		Timeout:           30 * time.Second,
	}
}

// DefaultSyncSettings returns the sync job defaults.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		OverlapWindow:     10 * time.Minute,
		RecentMax:         30,
		DiscoveryMaxPages: 50,
		PopularPerYear:    100,
		PopularPerGenre:   100,
		YearBatchSize:     20,
		FirstYear:         1900,
		MetadataLimit:     1000,
	}
}

// DefaultAppSettings returns sensible defaults for all settings.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Fetch: DefaultFetchSettings(),
		Sync:  DefaultSyncSettings(),
	}
}
