// Package sqlite provides a unified SQLite-based implementation of the driven
// store ports.
//
// It uses modernc.org/sqlite, a pure Go driver, so the binary builds without
// CGO. One database connection pool backs every store:
//
//   - SyncAttemptStore: sync lifecycle records
//   - EntrySyncRequestStore: the entry sync work queue and its batch claims
//   - UserStore, FilmEntryStore: users and their watch and diary entries
//   - MovieStore, PopularMovieStore, FilmListStore: the local catalog
//   - SchedulerStore: scheduled task state and run history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Timestamps
//
// Times are stored as fixed-width UTC text so that string comparison in SQL
// matches chronological order.
//
// # Data Location
//
// By default, the database is stored at ~/.filmsync/data/filmsync.db
package sqlite
