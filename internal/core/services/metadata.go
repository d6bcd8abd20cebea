package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
)

// Ensure MetadataSync implements the interface.
var _ driving.MetadataSync = (*MetadataSync)(nil)

// MetadataSync fills catalog gaps from the metadata API in best-effort batches.
// A failure for one movie is logged and skipped. A batch where every movie
// failed is an error.
type MetadataSync struct {
	tracker driving.SyncTracker
	client  driven.MetadataClient
	movies  driven.MovieStore
	entries driven.FilmEntryStore
	popular driven.PopularMovieStore
	limit   int
}

// NewMetadataSync creates a metadata sync. A nil client leaves every
// operation failing with domain.ErrMetadataUnavailable.
func NewMetadataSync(
	tracker driving.SyncTracker,
	client driven.MetadataClient,
	movies driven.MovieStore,
	entries driven.FilmEntryStore,
	popular driven.PopularMovieStore,
	limit int,
) *MetadataSync {
	if limit <= 0 {
		limit = domain.DefaultSyncSettings().MetadataLimit
	}
	return &MetadataSync{
		tracker: tracker,
		client:  client,
		movies:  movies,
		entries: entries,
		popular: popular,
		limit:   limit,
	}
}

// Collections syncs the collection of every movie that never had it synced.
func (m *MetadataSync) Collections(ctx context.Context) (domain.ActionResult, error) {
	return m.manage(ctx, domain.SyncTypeMoviesCollections, func(ctx context.Context) (domain.ActionResult, error) {
		movies, err := m.movies.ListMissingCollections(ctx, m.limit)
		if err != nil {
			return domain.ActionResult{}, fmt.Errorf("list movies missing collections: %w", err)
		}

		synced, err := bestEffort(ctx, movies, movieID,
			func(ctx context.Context, movie domain.Movie) (int, error) {
				md, err := m.client.GetMovie(ctx, movie.ID)
				if err != nil {
					return 0, err
				}
				if c := md.Collection; c != nil && c.ID > 0 && c.Name != "" {
					if err := m.movies.SaveCollection(ctx, c); err != nil {
						return 0, fmt.Errorf("save collection %d: %w", c.ID, err)
					}
					id := c.ID
					movie.CollectionID = &id
					logger.Debug("Found collection %q for %s", c.Name, movie.Title)
				}
				movie.SyncedCollections = true
				if err := m.movies.Save(ctx, &movie); err != nil {
					return 0, fmt.Errorf("save movie: %w", err)
				}
				return 1, nil
			})
		return domain.ActionResult{SyncedCount: synced}, err
	})
}

// Credits replaces the cast and crew of every movie that never had them
// synced. The synced count is the number of roles stored.
func (m *MetadataSync) Credits(ctx context.Context) (domain.ActionResult, error) {
	return m.manage(ctx, domain.SyncTypeMoviesCredits, func(ctx context.Context) (domain.ActionResult, error) {
		movies, err := m.movies.ListMissingCredits(ctx, m.limit)
		if err != nil {
			return domain.ActionResult{}, fmt.Errorf("list movies missing credits: %w", err)
		}

		synced, err := bestEffort(ctx, movies, movieID,
			func(ctx context.Context, movie domain.Movie) (int, error) {
				md, err := m.client.GetMovie(ctx, movie.ID)
				if err != nil {
					return 0, err
				}
				cast := make([]domain.CastRole, len(md.Cast))
				for i, role := range md.Cast {
					role.MovieID = movie.ID
					cast[i] = role
				}
				crew := make([]domain.CrewRole, len(md.Crew))
				for i, role := range md.Crew {
					role.MovieID = movie.ID
					crew[i] = role
				}
				if err := m.movies.SaveCredits(ctx, movie.ID, cast, crew); err != nil {
					return 0, fmt.Errorf("save credits: %w", err)
				}
				movie.SyncedCredits = true
				if err := m.movies.Save(ctx, &movie); err != nil {
					return 0, fmt.Errorf("save movie: %w", err)
				}
				return len(cast) + len(crew), nil
			})
		return domain.ActionResult{SyncedCount: synced}, err
	})
}

// EntriesMissingMovies creates catalog movies for ids referenced by entries.
func (m *MetadataSync) EntriesMissingMovies(ctx context.Context) (domain.ActionResult, error) {
	return m.manage(ctx, domain.SyncTypeEntriesMissingMovies, func(ctx context.Context) (domain.ActionResult, error) {
		ids, err := m.entries.ListMissingMovies(ctx, m.limit)
		if err != nil {
			return domain.ActionResult{}, fmt.Errorf("list entries missing movies: %w", err)
		}
		synced, err := m.syncMovies(ctx, ids)
		return domain.ActionResult{SyncedCount: synced}, err
	})
}

// PopularMissingMovies creates catalog movies for ids found on popularity listings.
func (m *MetadataSync) PopularMissingMovies(ctx context.Context) (domain.ActionResult, error) {
	return m.manage(ctx, domain.SyncTypePopularMovies, func(ctx context.Context) (domain.ActionResult, error) {
		ids, err := m.popular.ListMissingMovies(ctx, m.limit)
		if err != nil {
			return domain.ActionResult{}, fmt.Errorf("list popular movies missing movies: %w", err)
		}
		synced, err := m.syncMovies(ctx, ids)
		return domain.ActionResult{SyncedCount: synced}, err
	})
}

func (m *MetadataSync) syncMovies(ctx context.Context, ids []int64) (int, error) {
	return bestEffort(ctx, ids, func(id int64) int64 { return id },
		func(ctx context.Context, id int64) (int, error) {
			md, err := m.client.GetMovie(ctx, id)
			if err != nil {
				return 0, err
			}
			movie := md.ToMovie()
			if err := m.movies.Save(ctx, &movie); err != nil {
				return 0, fmt.Errorf("save movie: %w", err)
			}
			return 1, nil
		})
}

func (m *MetadataSync) manage(ctx context.Context, syncType domain.SyncType, fn driving.ActionFunc) (domain.ActionResult, error) {
	if m.client == nil {
		// Still tracked so scheduled runs leave a failed attempt behind.
		fn = func(context.Context) (domain.ActionResult, error) {
			return domain.ActionResult{}, domain.ErrMetadataUnavailable
		}
	}
	req := driving.ManagedRequest{Trigger: domain.SyncTriggerSystem, Type: syncType}
	return m.tracker.ManageAction(ctx, req, fn)
}

func movieID(movie domain.Movie) int64 { return movie.ID }

// bestEffort runs fn over items and sums what it reports. Item failures are
// logged and collected; an unavailable metadata service aborts the batch.
// An empty batch syncs nothing without error. A non-empty batch that syncs
// nothing fails with domain.ErrNothingSynced.
func bestEffort[T any](
	ctx context.Context,
	items []T,
	idOf func(T) int64,
	fn func(context.Context, T) (int, error),
) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	var (
		synced int
		failed []error
	)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		id := idOf(item)
		n, err := fn(ctx, item)
		if err != nil {
			if errors.Is(err, domain.ErrMetadataUnavailable) {
				return synced, err
			}
			logger.Warn("Skipping movie %d: %v", id, err)
			failed = append(failed, &domain.ItemError{ID: id, Err: err})
			continue
		}
		synced += n
	}

	if synced == 0 {
		if len(failed) == 0 {
			return 0, fmt.Errorf("%w: attempted %d movie(s)", domain.ErrNothingSynced, len(items))
		}
		return 0, fmt.Errorf("%w: attempted %d movie(s): %w", domain.ErrNothingSynced, len(items), errors.Join(failed...))
	}
	if len(failed) > 0 {
		logger.Info("Synced %d, %d movie(s) failed", synced, len(failed))
	}
	return synced, nil
}
