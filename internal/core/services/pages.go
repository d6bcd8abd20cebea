package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/logger"
)

// pages bundles the fetcher and extractor used by every scraping sync.
type pages struct {
	fetcher   driven.PageFetcher
	extractor driven.PageExtractor
}

// pagePath joins a listing base path with a page number.
func pagePath(base string, page int) string {
	return fmt.Sprintf("%s/page/%d/", strings.TrimSuffix(base, "/"), page)
}

// filmPath returns the film page location for a poster slug. Slugs are
// either bare ("heat-1995") or already a path ("/film/heat-1995/").
func filmPath(slug string) string {
	if strings.HasPrefix(slug, "/") {
		return slug
	}
	return "/film/" + slug + "/"
}

// lastPage fetches a listing and reads its highest page number.
func (p pages) lastPage(ctx context.Context, path string) (int, error) {
	doc, err := p.fetcher.Fetch(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", path, err)
	}
	last, err := p.extractor.LastPage(doc)
	if err != nil {
		return 0, fmt.Errorf("read last page of %s: %w", path, err)
	}
	return last, nil
}

// filmPage fetches and extracts the film page behind a slug.
func (p pages) filmPage(ctx context.Context, slug string) (domain.FilmPage, error) {
	path := filmPath(slug)
	doc, err := p.fetcher.Fetch(ctx, path)
	if err != nil {
		return domain.FilmPage{}, fmt.Errorf("fetch film %s: %w", path, err)
	}
	page, err := p.extractor.FilmPage(doc)
	if err != nil {
		return domain.FilmPage{}, fmt.Errorf("extract film %s: %w", path, err)
	}
	return page, nil
}

// posters returns a PageFunc over a poster grid. Each movie with a slug is
// resolved through its film page, which supplies the id and canonical name.
func (p pages) posters(base string) PageFunc[domain.ScrapedMovie] {
	return func(ctx context.Context, page, limit int) ([]domain.ScrapedMovie, error) {
		path := pagePath(base, page)
		logger.Debug("Syncing: %s", path)

		doc, err := p.fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", path, err)
		}
		movies, err := p.extractor.PosterList(doc)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", path, err)
		}
		if limit > 0 && len(movies) > limit {
			movies = movies[:limit]
		}

		for i := range movies {
			m := &movies[i]
			if m.Slug == nil {
				continue
			}
			film, err := p.filmPage(ctx, *m.Slug)
			if err != nil {
				return nil, err
			}
			if film.TmdbID != nil {
				m.ID = film.TmdbID
			}
			if film.Title != nil && *film.Title != "" {
				m.Name = film.Title
			}
		}
		return movies, nil
	}
}

// entries returns a PageFunc over a user's activity pages. extract picks the
// watches or diary layout; movieOnly drops ids of non-movie film pages.
func (p pages) entries(
	base string,
	extract func([]byte) ([]domain.ScrapedEntry, error),
	movieOnly bool,
) PageFunc[domain.ScrapedEntry] {
	return func(ctx context.Context, page, limit int) ([]domain.ScrapedEntry, error) {
		path := pagePath(base, page)
		logger.Debug("Beginning to process %s", path)

		doc, err := p.fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", path, err)
		}
		entries, err := extract(doc)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", path, err)
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}

		for i := range entries {
			e := &entries[i]
			if e.Slug == nil {
				continue
			}
			film, err := p.filmPage(ctx, *e.Slug)
			if err != nil {
				return nil, err
			}
			if movieOnly && !film.IsMovie() {
				continue
			}
			e.MovieID = film.TmdbID
		}
		return entries, nil
	}
}
