package domain

import (
	"fmt"
	"time"
)

// Scraped records are partial projections of remote pages. A nil field means
// the page did not expose it and must be read as "unknown", never as false or zero.

// ScrapedMovie is a movie stub read from a poster list.
type ScrapedMovie struct {
	ID            *int64
	Name          *string
	Slug          *string
	AverageRating *float64
}

// FilmPage holds the identity fields read from a single film page.
type FilmPage struct {
	TmdbID   *int64
	TmdbType *string
	Title    *string
}

// IsMovie returns true unless the page explicitly declares a non-movie type.
func (p FilmPage) IsMovie() bool {
	return p.TmdbType == nil || *p.TmdbType == "movie"
}

// ScrapedEntry is a watch or diary entry read from a user's activity pages.
type ScrapedEntry struct {
	MovieID *int64
	Name    *string
	Slug    *string
	Stars   *float64
	Heart   *bool
	Rewatch *bool
	Date    *time.Time
	SortID  int
}

// Validate checks the entry carries the identity fields needed to deduplicate it.
func (e ScrapedEntry) Validate() error {
	if e.MovieID == nil {
		return fmt.Errorf("%w: invalid movie id for %s", ErrMissingIdentity, describe(e.Slug))
	}
	if e.Name == nil {
		return fmt.Errorf("%w: invalid name for %s", ErrMissingIdentity, describe(e.Slug))
	}
	return nil
}

// Key returns the natural key used to detect an already stored entry.
// It must only be called on a validated entry.
func (e ScrapedEntry) Key(userID int64) NaturalKey {
	return NaturalKey{
		MovieID: *e.MovieID,
		UserID:  userID,
		Slug:    e.Slug,
		Name:    *e.Name,
		Stars:   e.Stars,
		Heart:   e.Heart,
	}
}

// ToFilmEntry converts a validated entry into a record owned by userID.
func (e ScrapedEntry) ToFilmEntry(userID int64) FilmEntry {
	entry := FilmEntry{
		UserID:  userID,
		MovieID: *e.MovieID,
		Name:    *e.Name,
		Stars:   e.Stars,
		Heart:   e.Heart,
		Rewatch: e.Rewatch,
		Date:    e.Date,
		SortID:  e.SortID,
	}
	if e.Slug != nil {
		entry.Slug = *e.Slug
	}
	return entry
}

// FilmEntry is a stored watch or diary entry.
type FilmEntry struct {
	ID      int64
	UserID  int64
	MovieID int64
	Name    string
	Slug    string
	Stars   *float64
	Heart   *bool
	Rewatch *bool
	Date    *time.Time
	SortID  int
}

// NaturalKey identifies a film entry by its content rather than its row id.
// Nil fields are unknown and match any stored value.
type NaturalKey struct {
	MovieID int64
	UserID  int64
	Slug    *string
	Name    string
	Stars   *float64
	Heart   *bool
}

// Matches reports whether entry has the same natural key.
func (k NaturalKey) Matches(entry FilmEntry) bool {
	if entry.MovieID != k.MovieID || entry.UserID != k.UserID || entry.Name != k.Name {
		return false
	}
	if k.Slug != nil && entry.Slug != *k.Slug {
		return false
	}
	if k.Stars != nil && (entry.Stars == nil || *entry.Stars != *k.Stars) {
		return false
	}
	if k.Heart != nil && (entry.Heart == nil || *entry.Heart != *k.Heart) {
		return false
	}
	return true
}

// ScrapedListDetails holds the metadata read from a list page.
type ScrapedListDetails struct {
	Title       *string
	Description *string
	Owner       *string
	Published   *time.Time
	Updated     *time.Time
	Ranked      bool
}

func describe(slug *string) string {
	if slug == nil {
		return "unknown film"
	}
	return *slug
}
