// Package driven lists the ports the core services call into.
//
// Adapters under internal/adapters/driven satisfy them:
//
//   - SyncAttemptStore, EntrySyncRequestStore: attempt lifecycle and the
//     at-most-once batch claim (sqlite, memory)
//   - UserStore, FilmEntryStore, MovieStore, PopularMovieStore, FilmListStore:
//     mirrored records (sqlite, memory)
//   - PageFetcher: retrying, rate-limited retrieval from the allowed origin (fetch)
//   - PageExtractor: markup to scraped records (extract/letterboxd)
//   - ConfigStore: config.toml access (config/file, memory)
//   - SchedulerStore: task state and history (sqlite)
//
// MetadataClient may be nil. Syncs that need it then fail with
// domain.ErrMetadataUnavailable.
package driven
