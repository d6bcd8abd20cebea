package driven

import (
	"context"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// UserStore persists local users.
type UserStore interface {
	// Get retrieves a user by ID.
	// Returns domain.ErrNotFound if the user does not exist.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// Save creates or updates a user.
	Save(ctx context.Context, user *domain.User) error

	// SetLastEntriesUpdated stamps the user's last entry sync time with now.
	// Returns domain.ErrNoRowsAffected if the user does not exist.
	SetLastEntriesUpdated(ctx context.Context, id int64) error
}

// FilmEntryStore persists a user's watch and diary entries.
type FilmEntryStore interface {
	// FindByNaturalKey returns the first entry matching key.
	// Returns nil and no error if none matches.
	FindByNaturalKey(ctx context.Context, key domain.NaturalKey) (*domain.FilmEntry, error)

	// Save inserts the entry and assigns its ID.
	Save(ctx context.Context, entry *domain.FilmEntry) error

	// CountForUser returns how many entries a user has.
	CountForUser(ctx context.Context, userID int64) (int, error)

	// ListMissingMovies returns distinct movie ids referenced by entries
	// that have no catalog movie yet.
	ListMissingMovies(ctx context.Context, limit int) ([]int64, error)
}

// MovieStore persists catalog movies with their collections and credits.
type MovieStore interface {
	// Get retrieves a movie by ID.
	// Returns domain.ErrNotFound if the movie does not exist.
	Get(ctx context.Context, id int64) (*domain.Movie, error)

	// Save creates or updates a movie.
	Save(ctx context.Context, movie *domain.Movie) error

	// ListMissingCollections returns movies whose collections were never synced.
	ListMissingCollections(ctx context.Context, limit int) ([]domain.Movie, error)

	// ListMissingCredits returns movies whose credits were never synced.
	ListMissingCredits(ctx context.Context, limit int) ([]domain.Movie, error)

	// SaveCollection creates or updates a collection.
	SaveCollection(ctx context.Context, collection *domain.Collection) error

	// SaveCredits replaces the cast and crew of a movie.
	SaveCredits(ctx context.Context, movieID int64, cast []domain.CastRole, crew []domain.CrewRole) error
}

// PopularMovieStore persists movies found on popularity listings.
type PopularMovieStore interface {
	// Save creates or updates a popular movie keyed by slug.
	Save(ctx context.Context, movie *domain.PopularMovie) error

	// ListMissingMovies returns ids of popular movies with no catalog movie yet.
	ListMissingMovies(ctx context.Context, limit int) ([]int64, error)
}

// FilmListStore persists users' public lists.
type FilmListStore interface {
	// Save creates or updates a list keyed by URL.
	Save(ctx context.Context, list *domain.FilmList) error

	// Get retrieves a list by URL.
	// Returns domain.ErrNotFound if the list does not exist.
	Get(ctx context.Context, url string) (*domain.FilmList, error)
}
