package driving

import (
	"context"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// WatchSync mirrors a user's watch activity into the local store.
type WatchSync interface {
	// SyncRecent syncs new rated activity, stopping at the first entry already stored.
	SyncRecent(ctx context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error)

	// SyncAll walks every rated activity page of the user.
	SyncAll(ctx context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error)

	// SyncDiary walks every diary page of the user.
	SyncDiary(ctx context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error)

	// SyncFrom runs a rated activity sync of kind starting at startPage.
	// The result's LastPage is the last page the walk processed.
	SyncFrom(
		ctx context.Context,
		trigger domain.SyncTrigger,
		userID int64,
		kind domain.EntrySyncKind,
		startPage int,
	) (domain.ActionResult, error)
}

// ListSync mirrors a user's public lists.
type ListSync interface {
	// SyncUserLists discovers and stores every public list of username.
	SyncUserLists(ctx context.Context, trigger domain.SyncTrigger, username string) (domain.ActionResult, error)
}

// PopularYearOptions selects the years walked by a popular-by-year sync.
// A zero EndYear resumes after the last complete run.
type PopularYearOptions struct {
	StartYear int
	EndYear   int
}

// PopularSync mirrors the popularity listings of the catalog.
type PopularSync interface {
	// ByYear walks popular movies for a range of release years.
	ByYear(ctx context.Context, opts PopularYearOptions) (domain.ActionResult, error)

	// ByGenre walks popular movies for every genre.
	ByGenre(ctx context.Context) (domain.ActionResult, error)
}

// MetadataSync fills catalog gaps from the metadata API.
// Each call is a best-effort batch: single-movie failures are logged and skipped.
type MetadataSync interface {
	// Collections syncs collections for movies that never had them synced.
	Collections(ctx context.Context) (domain.ActionResult, error)

	// Credits syncs cast and crew for movies that never had them synced.
	Credits(ctx context.Context) (domain.ActionResult, error)

	// EntriesMissingMovies creates catalog movies referenced by entries.
	EntriesMissingMovies(ctx context.Context) (domain.ActionResult, error)

	// PopularMissingMovies creates catalog movies referenced by popular listings.
	PopularMissingMovies(ctx context.Context) (domain.ActionResult, error)
}

// EntryQueue manages requested entry syncs.
type EntryQueue interface {
	// Request records that a user's entries should be synced.
	Request(ctx context.Context, userID int64, kind domain.EntrySyncKind) (*domain.EntrySyncRequest, error)

	// ClaimRequested atomically claims every requested item as one batch.
	// Returns an empty slice when nothing was requested.
	ClaimRequested(ctx context.Context) ([]domain.EntrySyncRequest, error)

	// ProcessBatch runs the syncs of a claimed batch and returns how many completed.
	ProcessBatch(ctx context.Context, batch []domain.EntrySyncRequest) (int, error)

	// Drain claims and processes one batch.
	Drain(ctx context.Context) (domain.ActionResult, error)
}
