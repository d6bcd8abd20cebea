package driven

import "github.com/custodia-labs/filmsync/internal/core/domain"

// PageExtractor turns one fetched document into partial records.
// Missing optional fields are left nil. An error is returned only for
// structurally malformed input.
type PageExtractor interface {
	// PosterList extracts movie stubs from a poster grid page.
	PosterList(doc []byte) ([]domain.ScrapedMovie, error)

	// FilmPage extracts the identity of a single film page.
	FilmPage(doc []byte) (domain.FilmPage, error)

	// Watches extracts entries from a user's rated films page.
	Watches(doc []byte) ([]domain.ScrapedEntry, error)

	// Diary extracts entries from a user's diary page.
	Diary(doc []byte) ([]domain.ScrapedEntry, error)

	// ListIndex extracts list page locations from a user's lists page.
	ListIndex(doc []byte) ([]string, error)

	// ListDetails extracts list metadata from a list page.
	ListDetails(doc []byte) (domain.ScrapedListDetails, error)

	// LastPage returns the highest page number in the pagination block, or 1 without one.
	LastPage(doc []byte) (int, error)
}
