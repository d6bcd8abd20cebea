// Package domain holds the filmsync entities and the rules that govern them.
//
// The central type is SyncAttempt. Its status moves from Pending to
// In Progress and ends as Complete, Skipped or Failed. Around it sit:
//
//   - EntrySyncRequest: queued work to refresh one user's film entries
//   - ScrapedMovie, ScrapedEntry, ScrapedListDetails: fields read from pages
//   - FilmEntry, Movie, PopularMovie, FilmList: rows in the local store
//   - ScheduledTask, TaskResult: scheduler state and run history
//   - AppSettings, SchedulerConfig: tuning read from config.toml
//
// # Dependencies
//
// Only the standard library. Services and adapters import domain; domain
// imports none of them.
package domain
