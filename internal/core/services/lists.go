package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
)

// Ensure ListSync implements the interface.
var _ driving.ListSync = (*ListSync)(nil)

// ListSync mirrors a user's public lists, oldest first.
type ListSync struct {
	tracker  driving.SyncTracker
	pages    pages
	lists    driven.FilmListStore
	maxPages int
}

// NewListSync creates a list sync. maxPages caps the index walk and each list's poster walk.
func NewListSync(
	tracker driving.SyncTracker,
	fetcher driven.PageFetcher,
	extractor driven.PageExtractor,
	lists driven.FilmListStore,
	maxPages int,
) *ListSync {
	if maxPages <= 0 {
		maxPages = domain.DefaultSyncSettings().DiscoveryMaxPages
	}
	return &ListSync{
		tracker:  tracker,
		pages:    pages{fetcher: fetcher, extractor: extractor},
		lists:    lists,
		maxPages: maxPages,
	}
}

// SyncUserLists discovers every public list of username and stores each one
// with the movie ids it contains. Lists are persisted as the index is walked.
func (s *ListSync) SyncUserLists(
	ctx context.Context,
	trigger domain.SyncTrigger,
	username string,
) (domain.ActionResult, error) {
	if username == "" {
		return domain.ActionResult{}, fmt.Errorf("username: %w", domain.ErrInvalidInput)
	}

	req := driving.ManagedRequest{Trigger: trigger, Type: domain.SyncTypeUserLists, Username: username}
	return s.tracker.ManageAction(ctx, req, func(ctx context.Context) (domain.ActionResult, error) {
		base := "/" + username + "/lists/public/by/created-oldest/"
		res, err := Discover(ctx, DiscoverOptions[string]{
			MaxPages: s.maxPages,
			Page: func(ctx context.Context, page, _ int) ([]string, error) {
				path := pagePath(base, page)
				doc, err := s.pages.fetcher.Fetch(ctx, path)
				if err != nil {
					return nil, fmt.Errorf("fetch %s: %w", path, err)
				}
				urls, err := s.pages.extractor.ListIndex(doc)
				if err != nil {
					return nil, fmt.Errorf("extract %s: %w", path, err)
				}
				return urls, nil
			},
			ProcessPage: func(ctx context.Context, urls []string) ([]string, error) {
				for _, url := range urls {
					if err := s.syncList(ctx, url); err != nil {
						return nil, err
					}
				}
				return urls, nil
			},
		})
		if err != nil {
			return domain.ActionResult{SyncedCount: len(res.Items)}, fmt.Errorf("sync lists for %s: %w", username, err)
		}
		logger.Info("Synced %d list(s) for %s", len(res.Items), username)
		return domain.ActionResult{SyncedCount: len(res.Items)}, nil
	})
}

// syncList stores one list with its details and movie ids.
func (s *ListSync) syncList(ctx context.Context, url string) error {
	doc, err := s.pages.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch list %s: %w", url, err)
	}
	details, err := s.pages.extractor.ListDetails(doc)
	if err != nil {
		return fmt.Errorf("extract list %s: %w", url, err)
	}

	films, err := Discover(ctx, DiscoverOptions[domain.ScrapedMovie]{
		MaxPages: s.maxPages,
		Page:     s.pages.posters(url),
	})
	if err != nil {
		return fmt.Errorf("walk list %s: %w", url, err)
	}

	ids := make([]int64, 0, len(films.Items))
	for _, f := range films.Items {
		if f.ID != nil {
			ids = append(ids, *f.ID)
		}
	}
	if dropped := len(films.Items) - len(ids); dropped > 0 {
		logger.Warn("Dropped %d movie(s) without a numeric id from list %s", dropped, url)
	}

	list := toFilmList(url, details, ids)
	if err := s.lists.Save(ctx, &list); err != nil {
		return fmt.Errorf("save list %s: %w", url, err)
	}
	logger.Debug("Saved list %q with %d movie(s)", list.Title, len(ids))
	return nil
}

// toFilmList builds a stored list. A list never updated reports its publish date.
func toFilmList(url string, d domain.ScrapedListDetails, ids []int64) domain.FilmList {
	list := domain.FilmList{
		URL:        url,
		Ranked:     d.Ranked,
		Visibility: "public",
		MovieIDs:   ids,
	}
	if d.Title != nil {
		list.Title = *d.Title
	}
	if d.Description != nil {
		list.Description = *d.Description
	}
	if d.Owner != nil {
		list.Owner = *d.Owner
	}
	if d.Published != nil {
		list.Published = *d.Published
	}
	if d.Updated != nil {
		list.LastUpdated = *d.Updated
	} else {
		list.LastUpdated = list.Published
	}
	return list
}
