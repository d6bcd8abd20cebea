package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
)

// Ensure catalog stores implement their interfaces.
var (
	_ driven.UserStore         = (*UserStore)(nil)
	_ driven.FilmEntryStore    = (*FilmEntryStore)(nil)
	_ driven.MovieStore        = (*MovieStore)(nil)
	_ driven.PopularMovieStore = (*PopularMovieStore)(nil)
	_ driven.FilmListStore     = (*FilmListStore)(nil)
)

// UserStore is an in-memory implementation of driven.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[int64]domain.User
	now   func() time.Time
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[int64]domain.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Get retrieves a user by ID.
func (s *UserStore) Get(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

// Save creates or updates a user.
func (s *UserStore) Save(_ context.Context, user *domain.User) error {
	if user == nil || user.Username == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

// SetLastEntriesUpdated stamps the user's last entry sync time.
func (s *UserStore) SetLastEntriesUpdated(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.ErrNoRowsAffected
	}
	user.LastEntriesUpdated = s.now()
	s.users[id] = user
	return nil
}

// MovieStore is an in-memory implementation of driven.MovieStore.
type MovieStore struct {
	mu          sync.RWMutex
	movies      map[int64]domain.Movie
	collections map[int64]domain.Collection
	cast        map[int64][]domain.CastRole
	crew        map[int64][]domain.CrewRole
}

// NewMovieStore creates a new in-memory movie store.
func NewMovieStore() *MovieStore {
	return &MovieStore{
		movies:      make(map[int64]domain.Movie),
		collections: make(map[int64]domain.Collection),
		cast:        make(map[int64][]domain.CastRole),
		crew:        make(map[int64][]domain.CrewRole),
	}
}

// Get retrieves a movie by ID.
func (s *MovieStore) Get(_ context.Context, id int64) (*domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	movie, ok := s.movies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &movie, nil
}

// Save creates or updates a movie.
func (s *MovieStore) Save(_ context.Context, movie *domain.Movie) error {
	if movie == nil || movie.ID <= 0 {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies[movie.ID] = *movie
	return nil
}

// ListMissingCollections returns movies whose collections were never synced.
func (s *MovieStore) ListMissingCollections(_ context.Context, limit int) ([]domain.Movie, error) {
	return s.filter(limit, func(m domain.Movie) bool { return !m.SyncedCollections }), nil
}

// ListMissingCredits returns movies whose credits were never synced.
func (s *MovieStore) ListMissingCredits(_ context.Context, limit int) ([]domain.Movie, error) {
	return s.filter(limit, func(m domain.Movie) bool { return !m.SyncedCredits }), nil
}

// SaveCollection creates or updates a collection.
func (s *MovieStore) SaveCollection(_ context.Context, collection *domain.Collection) error {
	if collection == nil || collection.ID <= 0 {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection.ID] = *collection
	return nil
}

// SaveCredits replaces the cast and crew of a movie.
func (s *MovieStore) SaveCredits(_ context.Context, movieID int64, cast []domain.CastRole, crew []domain.CrewRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cast[movieID] = append([]domain.CastRole(nil), cast...)
	s.crew[movieID] = append([]domain.CrewRole(nil), crew...)
	return nil
}

// Collection returns a stored collection. Used by tests.
func (s *MovieStore) Collection(id int64) (domain.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[id]
	return c, ok
}

// Credits returns the stored cast and crew of a movie. Used by tests.
func (s *MovieStore) Credits(movieID int64) ([]domain.CastRole, []domain.CrewRole) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cast[movieID], s.crew[movieID]
}

func (s *MovieStore) has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.movies[id]
	return ok
}

func (s *MovieStore) filter(limit int, keep func(domain.Movie) bool) []domain.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Movie
	for _, m := range s.movies {
		if keep(m) {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// FilmEntryStore is an in-memory implementation of driven.FilmEntryStore.
// It consults movies to find entries without a catalog movie.
type FilmEntryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries []domain.FilmEntry
	movies  *MovieStore
}

// NewFilmEntryStore creates a new in-memory entry store backed by movies.
func NewFilmEntryStore(movies *MovieStore) *FilmEntryStore {
	return &FilmEntryStore{movies: movies}
}

// FindByNaturalKey returns the first entry matching key, or nil.
func (s *FilmEntryStore) FindByNaturalKey(_ context.Context, key domain.NaturalKey) (*domain.FilmEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if key.Matches(e) {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

// Save inserts the entry and assigns its ID.
func (s *FilmEntryStore) Save(_ context.Context, entry *domain.FilmEntry) error {
	if entry == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, *entry)
	return nil
}

// CountForUser returns how many entries a user has.
func (s *FilmEntryStore) CountForUser(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

// ListMissingMovies returns distinct movie ids without a catalog movie.
func (s *FilmEntryStore) ListMissingMovies(_ context.Context, limit int) ([]int64, error) {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.entries))
	for _, e := range s.entries {
		ids = append(ids, e.MovieID)
	}
	s.mu.RUnlock()
	return missing(ids, s.movies, limit), nil
}

// Entries returns every stored entry in insertion order. Used by tests.
func (s *FilmEntryStore) Entries() []domain.FilmEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.FilmEntry(nil), s.entries...)
}

// PopularMovieStore is an in-memory implementation of driven.PopularMovieStore.
type PopularMovieStore struct {
	mu     sync.RWMutex
	bySlug map[string]domain.PopularMovie
	movies *MovieStore
}

// NewPopularMovieStore creates a new in-memory popular movie store backed by movies.
func NewPopularMovieStore(movies *MovieStore) *PopularMovieStore {
	return &PopularMovieStore{
		bySlug: make(map[string]domain.PopularMovie),
		movies: movies,
	}
}

// Save creates or updates a popular movie keyed by slug.
func (s *PopularMovieStore) Save(_ context.Context, movie *domain.PopularMovie) error {
	if movie == nil || movie.Slug == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySlug[movie.Slug] = *movie
	return nil
}

// ListMissingMovies returns ids of popular movies with no catalog movie yet.
func (s *PopularMovieStore) ListMissingMovies(_ context.Context, limit int) ([]int64, error) {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.bySlug))
	for _, m := range s.bySlug {
		if m.ID != nil {
			ids = append(ids, *m.ID)
		}
	}
	s.mu.RUnlock()
	return missing(ids, s.movies, limit), nil
}

// Len returns the number of stored popular movies. Used by tests.
func (s *PopularMovieStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySlug)
}

// FilmListStore is an in-memory implementation of driven.FilmListStore.
type FilmListStore struct {
	mu    sync.RWMutex
	lists map[string]domain.FilmList
}

// NewFilmListStore creates a new in-memory list store.
func NewFilmListStore() *FilmListStore {
	return &FilmListStore{lists: make(map[string]domain.FilmList)}
}

// Save creates or updates a list keyed by URL.
func (s *FilmListStore) Save(_ context.Context, list *domain.FilmList) error {
	if list == nil || list.URL == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *list
	stored.MovieIDs = append([]int64(nil), list.MovieIDs...)
	s.lists[list.URL] = stored
	return nil
}

// Get retrieves a list by URL.
func (s *FilmListStore) Get(_ context.Context, url string) (*domain.FilmList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &list, nil
}

// missing returns the sorted distinct ids not present in movies.
func missing(ids []int64, movies *MovieStore, limit int) []int64 {
	seen := make(map[int64]bool, len(ids))
	var result []int64
	for _, id := range ids {
		if seen[id] || movies.has(id) {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
