package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
)

// Ensure WatchSync implements the interface.
var _ driving.WatchSync = (*WatchSync)(nil)

// WatchSync mirrors a user's rated films and diary into the entry store.
// Every run is tracked as a User:Ratings attempt and skipped when another
// run for the same user is already in flight.
type WatchSync struct {
	tracker driving.SyncTracker
	pages   pages
	users   driven.UserStore
	entries driven.FilmEntryStore

	recentMax int
	now       func() time.Time
}

// NewWatchSync creates a watch sync. A non-positive recentMax uses the default.
func NewWatchSync(
	tracker driving.SyncTracker,
	fetcher driven.PageFetcher,
	extractor driven.PageExtractor,
	users driven.UserStore,
	entries driven.FilmEntryStore,
	recentMax int,
) *WatchSync {
	if recentMax <= 0 {
		recentMax = domain.DefaultSyncSettings().RecentMax
	}
	return &WatchSync{
		tracker:   tracker,
		pages:     pages{fetcher: fetcher, extractor: extractor},
		users:     users,
		entries:   entries,
		recentMax: recentMax,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// watchWalk selects the listing and stop rules of one watch sync.
type watchWalk struct {
	base      string
	extract   func([]byte) ([]domain.ScrapedEntry, error)
	startPage int
	maxItems  int
	dedup     bool
	movieOnly bool

	// collectedAt stamps entries with the sync time instead of the page date.
	collectedAt bool
}

// SyncRecent syncs rated activity newest first, stopping at the first
// page that contributes nothing new or after the recent cap.
func (w *WatchSync) SyncRecent(ctx context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error) {
	return w.SyncFrom(ctx, trigger, userID, domain.EntrySyncRecent, 1)
}

// SyncAll walks every rated activity page without deduplication.
func (w *WatchSync) SyncAll(ctx context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error) {
	return w.SyncFrom(ctx, trigger, userID, domain.EntrySyncAll, 1)
}

// SyncFrom walks rated activity from startPage. Recent syncs deduplicate and
// honour the recent cap; full syncs do neither. A non-positive startPage
// starts at page 1.
func (w *WatchSync) SyncFrom(
	ctx context.Context,
	trigger domain.SyncTrigger,
	userID int64,
	kind domain.EntrySyncKind,
	startPage int,
) (domain.ActionResult, error) {
	if !kind.IsValid() {
		return domain.ActionResult{}, fmt.Errorf("sync kind %q: %w", kind, domain.ErrInvalidInput)
	}
	return w.sync(ctx, trigger, userID, func(username string) watchWalk {
		plan := watchWalk{
			base:        "/" + username + "/films/by/rated-date/",
			extract:     w.pages.extractor.Watches,
			startPage:   startPage,
			collectedAt: true,
		}
		if kind == domain.EntrySyncRecent {
			plan.maxItems = w.recentMax
			plan.dedup = true
		}
		return plan
	})
}

// SyncDiary walks the user's diary. Diary rows carry their own watch date.
func (w *WatchSync) SyncDiary(ctx context.Context, trigger domain.SyncTrigger, userID int64) (domain.ActionResult, error) {
	return w.sync(ctx, trigger, userID, func(username string) watchWalk {
		return watchWalk{
			base:      "/" + username + "/films/diary/",
			extract:   w.pages.extractor.Diary,
			dedup:     true,
			movieOnly: true,
		}
	})
}

func (w *WatchSync) sync(
	ctx context.Context,
	trigger domain.SyncTrigger,
	userID int64,
	plan func(username string) watchWalk,
) (domain.ActionResult, error) {
	user, err := w.users.Get(ctx, userID)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("get user %d: %w", userID, err)
	}

	req := driving.ManagedRequest{
		Trigger:  trigger,
		Type:     domain.SyncTypeUserRatings,
		Username: user.Username,
	}
	result, err := w.tracker.RunQueued(ctx, req, driving.OverlapSkip, func(ctx context.Context) (domain.ActionResult, error) {
		return w.walk(ctx, user, plan(user.Username))
	})
	if result.Skipped {
		logger.Info("Skipped watch sync for %s: another sync is in progress", user.Username)
	}
	return result, err
}

func (w *WatchSync) walk(ctx context.Context, user *domain.User, plan watchWalk) (domain.ActionResult, error) {
	lastPage, err := w.pages.lastPage(ctx, plan.base)
	if err != nil {
		return domain.ActionResult{}, err
	}
	collected := w.now()

	opts := IncrementalOptions[domain.ScrapedEntry]{
		StartPage: plan.startPage,
		LastPage:  lastPage,
		MaxItems:  plan.maxItems,
		Page:      w.pages.entries(plan.base, plan.extract, plan.movieOnly),
		Validate:  func(e domain.ScrapedEntry) error { return e.Validate() },
		Persist: func(ctx context.Context, e domain.ScrapedEntry, seq int) error {
			entry := e.ToFilmEntry(user.ID)
			entry.SortID = seq
			if plan.collectedAt {
				entry.Date = &collected
			}
			if err := w.entries.Save(ctx, &entry); err != nil {
				return fmt.Errorf("save entry %s for %s: %w", entry.Slug, user.Username, err)
			}
			return nil
		},
	}
	if plan.dedup {
		opts.IsDuplicate = func(ctx context.Context, e domain.ScrapedEntry) (bool, error) {
			found, err := w.entries.FindByNaturalKey(ctx, e.Key(user.ID))
			if err != nil {
				return false, err
			}
			return found != nil, nil
		}
	}

	res, err := Incremental(ctx, opts)
	synced := domain.ActionResult{SyncedCount: len(res.Synced)}
	if err != nil {
		return synced, fmt.Errorf("sync watches for %s: %w", user.Username, err)
	}

	if err := w.users.SetLastEntriesUpdated(ctx, user.ID); err != nil {
		return synced, fmt.Errorf("stamp last entries update for %s: %w", user.Username, err)
	}
	synced.LastPage = max(plan.startPage, 1) + res.Pages - 1
	logger.Info("Synced %d entries for %s over %d page(s)", len(res.Synced), user.Username, res.Pages)
	return synced, nil
}
