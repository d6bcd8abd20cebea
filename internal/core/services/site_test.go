package services

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// fakeSite serves canned pages. Fetch echoes the requested path as the
// document body, and every extractor method looks its result up by that path.
type fakeSite struct {
	mu      sync.Mutex
	fetched []string

	errs      map[string]error
	lastPages map[string]int
	posters   map[string][]domain.ScrapedMovie
	films     map[string]domain.FilmPage
	watches   map[string][]domain.ScrapedEntry
	diary     map[string][]domain.ScrapedEntry
	listIndex map[string][]string
	lists     map[string]domain.ScrapedListDetails
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		errs:      make(map[string]error),
		lastPages: make(map[string]int),
		posters:   make(map[string][]domain.ScrapedMovie),
		films:     make(map[string]domain.FilmPage),
		watches:   make(map[string][]domain.ScrapedEntry),
		diary:     make(map[string][]domain.ScrapedEntry),
		listIndex: make(map[string][]string),
		lists:     make(map[string]domain.ScrapedListDetails),
	}
}

func (s *fakeSite) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, url)
	if err := s.errs[url]; err != nil {
		return nil, err
	}
	return []byte(url), nil
}

func (s *fakeSite) PosterList(doc []byte) ([]domain.ScrapedMovie, error) {
	return slices.Clone(s.posters[string(doc)]), nil
}

func (s *fakeSite) FilmPage(doc []byte) (domain.FilmPage, error) {
	return s.films[string(doc)], nil
}

func (s *fakeSite) Watches(doc []byte) ([]domain.ScrapedEntry, error) {
	return slices.Clone(s.watches[string(doc)]), nil
}

func (s *fakeSite) Diary(doc []byte) ([]domain.ScrapedEntry, error) {
	return slices.Clone(s.diary[string(doc)]), nil
}

func (s *fakeSite) ListIndex(doc []byte) ([]string, error) {
	return slices.Clone(s.listIndex[string(doc)]), nil
}

func (s *fakeSite) ListDetails(doc []byte) (domain.ScrapedListDetails, error) {
	return s.lists[string(doc)], nil
}

func (s *fakeSite) LastPage(doc []byte) (int, error) {
	if n, ok := s.lastPages[string(doc)]; ok {
		return n, nil
	}
	return 1, nil
}

// film registers a film page for slug with a metadata id.
func (s *fakeSite) film(slug string, tmdbID int64) {
	s.films[filmPath(slug)] = domain.FilmPage{TmdbID: ptr(tmdbID), Title: ptr(slug)}
}

// fetchedPaths returns every path fetched so far.
func (s *fakeSite) fetchedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.fetched)
}

// watch builds a rated entry stub as the watches page shows it.
func watch(slug string, stars float64) domain.ScrapedEntry {
	return domain.ScrapedEntry{
		Name:  ptr(slug),
		Slug:  ptr(slug),
		Stars: ptr(stars),
		Heart: ptr(false),
	}
}

// poster builds a poster stub with a slug only.
func poster(slug string) domain.ScrapedMovie {
	return domain.ScrapedMovie{Slug: ptr(slug)}
}
