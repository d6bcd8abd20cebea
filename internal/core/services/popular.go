package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
)

// Ensure PopularSync implements the interface.
var _ driving.PopularSync = (*PopularSync)(nil)

// genres are the metadata API genres walked by ByGenre. "TV Movie" has no
// popularity listing and is left out.
var genres = []string{
	"Action", "Adventure", "Animation", "Comedy", "Crime", "Documentary",
	"Drama", "Family", "Fantasy", "History", "Horror", "Music", "Mystery",
	"Romance", "Science Fiction", "Thriller", "War", "Western",
}

// GenrePaths returns the listing path segment of every synced genre.
func GenrePaths() []string {
	paths := make([]string, len(genres))
	for i, g := range genres {
		paths[i] = strings.ReplaceAll(strings.ToLower(g), " ", "-")
	}
	return paths
}

// PopularSync mirrors popularity listings into the popular movie store.
type PopularSync struct {
	tracker  driving.SyncTracker
	pages    pages
	popular  driven.PopularMovieStore
	settings domain.SyncSettings
	now      func() time.Time
}

// NewPopularSync creates a popular sync.
func NewPopularSync(
	tracker driving.SyncTracker,
	fetcher driven.PageFetcher,
	extractor driven.PageExtractor,
	popular driven.PopularMovieStore,
	settings domain.SyncSettings,
) *PopularSync {
	return &PopularSync{
		tracker:  tracker,
		pages:    pages{fetcher: fetcher, extractor: extractor},
		popular:  popular,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ByYear walks the popular listing of each year in [start, end). Without an
// explicit end year the range resumes where the last complete run stopped
// and covers at most one year batch. Years without a listing are skipped.
func (s *PopularSync) ByYear(ctx context.Context, opts driving.PopularYearOptions) (domain.ActionResult, error) {
	req := driving.ManagedRequest{Trigger: domain.SyncTriggerSystem, Type: domain.SyncTypePopularByYear}
	return s.tracker.ManageAction(ctx, req, func(ctx context.Context) (domain.ActionResult, error) {
		start, end, err := s.yearRange(ctx, opts)
		if err != nil {
			return domain.ActionResult{}, err
		}
		logger.Info("Syncing popular movies for year range: %d - %d", start, end)

		total := 0
		for year := start; year < end; year++ {
			base := fmt.Sprintf("/films/ajax/popular/year/%d/size/small/", year)
			n, err := s.walk(ctx, base, s.settings.PopularPerYear)
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("No popular listing for %d", year)
				continue
			}
			if err != nil {
				return domain.ActionResult{SyncedCount: total}, fmt.Errorf("popular movies for %d: %w", year, err)
			}
			total += n
		}

		return domain.ActionResult{
			SyncedCount: total,
			SecondaryID: fmt.Sprintf("%d-%d", start, end),
		}, nil
	})
}

// ByGenre walks the popular listing of every genre.
func (s *PopularSync) ByGenre(ctx context.Context) (domain.ActionResult, error) {
	req := driving.ManagedRequest{Trigger: domain.SyncTriggerSystem, Type: domain.SyncTypePopularByGenre}
	return s.tracker.ManageAction(ctx, req, func(ctx context.Context) (domain.ActionResult, error) {
		total := 0
		for _, genre := range GenrePaths() {
			logger.Debug("Retrieving popular movies for genre: %s", genre)
			base := "/films/ajax/popular/genre/" + genre + "/size/small/"
			n, err := s.walk(ctx, base, s.settings.PopularPerGenre)
			if err != nil {
				return domain.ActionResult{SyncedCount: total}, fmt.Errorf("popular movies for genre %s: %w", genre, err)
			}
			total += n
		}
		return domain.ActionResult{SyncedCount: total}, nil
	})
}

// yearRange resolves the years a run covers.
func (s *PopularSync) yearRange(ctx context.Context, opts driving.PopularYearOptions) (int, int, error) {
	start, end := opts.StartYear, opts.EndYear
	if end > 0 {
		if start <= 0 {
			start = s.settings.FirstYear
		}
		if end < start {
			return 0, 0, fmt.Errorf("year range %d-%d: %w", start, end, domain.ErrInvalidInput)
		}
		return start, end, nil
	}

	currentYear := s.now().Year()
	if start <= 0 {
		start = s.settings.FirstYear
		last, err := s.tracker.LatestComplete(ctx, domain.SyncTypePopularByYear)
		if err != nil {
			return 0, 0, err
		}
		if resumed, ok := rangeEnd(last); ok && resumed < currentYear {
			start = resumed
		}
	}
	return start, min(currentYear, start+s.settings.YearBatchSize), nil
}

// rangeEnd reads the end year from a "<start>-<end>" correlation id.
func rangeEnd(attempt *domain.SyncAttempt) (int, bool) {
	if attempt == nil {
		return 0, false
	}
	_, endPart, ok := strings.Cut(attempt.SecondaryID, "-")
	if !ok {
		return 0, false
	}
	end, err := strconv.Atoi(endPart)
	if err != nil {
		return 0, false
	}
	return end, true
}

// walk discovers one listing, saving each page as it is fetched.
func (s *PopularSync) walk(ctx context.Context, base string, maxItems int) (int, error) {
	res, err := Discover(ctx, DiscoverOptions[domain.ScrapedMovie]{
		MaxItems:    maxItems,
		MaxPages:    s.settings.DiscoveryMaxPages,
		Page:        s.pages.posters(base),
		ProcessPage: s.savePage,
	})
	return len(res.Items), err
}

// savePage stores a page of popular movies. Movies without a slug cannot be
// keyed and are dropped from the batch.
func (s *PopularSync) savePage(ctx context.Context, batch []domain.ScrapedMovie) ([]domain.ScrapedMovie, error) {
	saved := make([]domain.ScrapedMovie, 0, len(batch))
	for _, m := range batch {
		if m.Slug == nil {
			continue
		}
		popular := domain.PopularMovie{
			Slug:          *m.Slug,
			ID:            m.ID,
			AverageRating: m.AverageRating,
		}
		if m.Name != nil {
			popular.Name = *m.Name
		}
		if err := s.popular.Save(ctx, &popular); err != nil {
			return nil, fmt.Errorf("save popular movie %s: %w", popular.Slug, err)
		}
		saved = append(saved, m)
	}
	return saved, nil
}
