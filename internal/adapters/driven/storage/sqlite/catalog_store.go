package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
)

var (
	_ driven.UserStore         = (*userStore)(nil)
	_ driven.FilmEntryStore    = (*filmEntryStore)(nil)
	_ driven.MovieStore        = (*movieStore)(nil)
	_ driven.PopularMovieStore = (*popularMovieStore)(nil)
	_ driven.FilmListStore     = (*filmListStore)(nil)
)

// ==================== Users ====================

type userStore struct {
	store *Store
}

// Get retrieves a user by ID.
func (s *userStore) Get(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	var updated sql.NullString
	err := s.store.db.QueryRowContext(ctx,
		`SELECT id, username, last_entries_updated FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u.LastEntriesUpdated = parseTime(updated)
	return &u, nil
}

// Save creates or updates a user.
func (s *userStore) Save(ctx context.Context, user *domain.User) error {
	if user == nil || user.Username == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO users (id, username, last_entries_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			last_entries_updated = excluded.last_entries_updated
	`, user.ID, user.Username, formatTime(user.LastEntriesUpdated))
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// SetLastEntriesUpdated stamps the user's last entry sync time.
func (s *userStore) SetLastEntriesUpdated(ctx context.Context, id int64) error {
	res, err := s.store.db.ExecContext(ctx,
		`UPDATE users SET last_entries_updated = ? WHERE id = ?`,
		formatTime(s.store.now()), id)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return mustAffect(res, fmt.Sprintf("stamp user %d", id))
}

// ==================== Film entries ====================

type filmEntryStore struct {
	store *Store
}

const entryColumns = `id, user_id, movie_id, name, slug, stars, heart, rewatch, date, sort_id`

// FindByNaturalKey returns the first entry matching key, or nil. Nil key
// fields match any stored value.
func (s *filmEntryStore) FindByNaturalKey(ctx context.Context, key domain.NaturalKey) (*domain.FilmEntry, error) {
	var slug any
	if key.Slug != nil {
		slug = *key.Slug
	}
	stars := nullFloat(key.Stars)
	heart := nullBool(key.Heart)

	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM film_entries
		WHERE user_id = ? AND movie_id = ? AND name = ?
			AND (? IS NULL OR slug = ?)
			AND (? IS NULL OR stars = ?)
			AND (? IS NULL OR heart = ?)
		ORDER BY id ASC
		LIMIT 1
	`, key.UserID, key.MovieID, key.Name, slug, slug, stars, stars, heart, heart)

	var e domain.FilmEntry
	var stored sql.NullFloat64
	var heartVal, rewatch sql.NullInt64
	var date sql.NullString
	err := row.Scan(&e.ID, &e.UserID, &e.MovieID, &e.Name, &e.Slug,
		&stored, &heartVal, &rewatch, &date, &e.SortID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying film entry: %w", err)
	}
	e.Stars = floatPtr(stored)
	e.Heart = boolPtr(heartVal)
	e.Rewatch = boolPtr(rewatch)
	e.Date = parseTimePtr(date)
	return &e, nil
}

// Save inserts the entry and assigns its ID.
func (s *filmEntryStore) Save(ctx context.Context, entry *domain.FilmEntry) error {
	if entry == nil {
		return domain.ErrInvalidInput
	}
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO film_entries (user_id, movie_id, name, slug, stars, heart, rewatch, date, sort_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.UserID, entry.MovieID, entry.Name, entry.Slug, nullFloat(entry.Stars),
		nullBool(entry.Heart), nullBool(entry.Rewatch), formatTimePtr(entry.Date), entry.SortID)
	if err != nil {
		return fmt.Errorf("inserting film entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading entry id: %w", err)
	}
	entry.ID = id
	return nil
}

// CountForUser returns how many entries a user has.
func (s *filmEntryStore) CountForUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM film_entries WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting film entries: %w", err)
	}
	return n, nil
}

// ListMissingMovies returns distinct movie ids without a catalog movie.
func (s *filmEntryStore) ListMissingMovies(ctx context.Context, limit int) ([]int64, error) {
	return queryIDs(ctx, s.store.db, `
		SELECT DISTINCT e.movie_id FROM film_entries e
		LEFT JOIN movies m ON m.id = e.movie_id
		WHERE m.id IS NULL
		ORDER BY e.movie_id ASC
		LIMIT ?
	`, sqlLimit(limit))
}

// ==================== Movies ====================

type movieStore struct {
	store *Store
}

const movieColumns = `id, title, collection_id, synced_collections, synced_credits`

// Get retrieves a movie by ID.
func (s *movieStore) Get(ctx context.Context, id int64) (*domain.Movie, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return movie, err
}

// Save creates or updates a movie.
func (s *movieStore) Save(ctx context.Context, movie *domain.Movie) error {
	if movie == nil || movie.ID <= 0 {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO movies (`+movieColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			collection_id = excluded.collection_id,
			synced_collections = excluded.synced_collections,
			synced_credits = excluded.synced_credits
	`, movie.ID, movie.Title, nullInt64(movie.CollectionID),
		boolToInt(movie.SyncedCollections), boolToInt(movie.SyncedCredits))
	if err != nil {
		return fmt.Errorf("saving movie: %w", err)
	}
	return nil
}

// ListMissingCollections returns movies whose collections were never synced.
func (s *movieStore) ListMissingCollections(ctx context.Context, limit int) ([]domain.Movie, error) {
	return s.query(ctx, `
		SELECT `+movieColumns+` FROM movies
		WHERE synced_collections = 0
		ORDER BY id ASC
		LIMIT ?
	`, sqlLimit(limit))
}

// ListMissingCredits returns movies whose credits were never synced.
func (s *movieStore) ListMissingCredits(ctx context.Context, limit int) ([]domain.Movie, error) {
	return s.query(ctx, `
		SELECT `+movieColumns+` FROM movies
		WHERE synced_credits = 0
		ORDER BY id ASC
		LIMIT ?
	`, sqlLimit(limit))
}

// SaveCollection creates or updates a collection.
func (s *movieStore) SaveCollection(ctx context.Context, collection *domain.Collection) error {
	if collection == nil || collection.ID <= 0 {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, poster_path, backdrop_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			poster_path = excluded.poster_path,
			backdrop_path = excluded.backdrop_path
	`, collection.ID, collection.Name, nullString(collection.PosterPath), nullString(collection.BackdropPath))
	if err != nil {
		return fmt.Errorf("saving collection: %w", err)
	}
	return nil
}

// SaveCredits replaces the cast and crew of a movie.
func (s *movieStore) SaveCredits(
	ctx context.Context,
	movieID int64,
	cast []domain.CastRole,
	crew []domain.CrewRole,
) error {
	if cast == nil {
		cast = []domain.CastRole{}
	}
	if crew == nil {
		crew = []domain.CrewRole{}
	}
	castJSON, err := json.Marshal(cast)
	if err != nil {
		return fmt.Errorf("encoding cast: %w", err)
	}
	crewJSON, err := json.Marshal(crew)
	if err != nil {
		return fmt.Errorf("encoding crew: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO movie_credits (movie_id, cast_json, crew_json)
		VALUES (?, ?, ?)
		ON CONFLICT(movie_id) DO UPDATE SET
			cast_json = excluded.cast_json,
			crew_json = excluded.crew_json
	`, movieID, string(castJSON), string(crewJSON))
	if err != nil {
		return fmt.Errorf("saving credits: %w", err)
	}
	return nil
}

// credits reads back the stored cast and crew of a movie.
func (s *movieStore) credits(ctx context.Context, movieID int64) ([]domain.CastRole, []domain.CrewRole, error) {
	var castJSON, crewJSON string
	err := s.store.db.QueryRowContext(ctx,
		`SELECT cast_json, crew_json FROM movie_credits WHERE movie_id = ?`, movieID,
	).Scan(&castJSON, &crewJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("querying credits: %w", err)
	}

	var cast []domain.CastRole
	var crew []domain.CrewRole
	if err := json.Unmarshal([]byte(castJSON), &cast); err != nil {
		return nil, nil, fmt.Errorf("decoding cast: %w", err)
	}
	if err := json.Unmarshal([]byte(crewJSON), &crew); err != nil {
		return nil, nil, fmt.Errorf("decoding crew: %w", err)
	}
	return cast, crew, nil
}

func (s *movieStore) query(ctx context.Context, q string, args ...any) ([]domain.Movie, error) {
	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movies: %w", err)
	}
	return movies, nil
}

func scanMovie(row rowScanner) (*domain.Movie, error) {
	var m domain.Movie
	var collectionID sql.NullInt64
	var syncedCollections, syncedCredits int
	err := row.Scan(&m.ID, &m.Title, &collectionID, &syncedCollections, &syncedCredits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning movie: %w", err)
	}
	m.CollectionID = int64Ptr(collectionID)
	m.SyncedCollections = syncedCollections == 1
	m.SyncedCredits = syncedCredits == 1
	return &m, nil
}

// ==================== Popular movies ====================

type popularMovieStore struct {
	store *Store
}

// Save creates or updates a popular movie keyed by slug.
func (s *popularMovieStore) Save(ctx context.Context, movie *domain.PopularMovie) error {
	if movie == nil || movie.Slug == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO popular_movies (slug, movie_id, name, average_rating)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			movie_id = excluded.movie_id,
			name = excluded.name,
			average_rating = excluded.average_rating
	`, movie.Slug, nullInt64(movie.ID), movie.Name, nullFloat(movie.AverageRating))
	if err != nil {
		return fmt.Errorf("saving popular movie: %w", err)
	}
	return nil
}

// ListMissingMovies returns ids of popular movies with no catalog movie yet.
func (s *popularMovieStore) ListMissingMovies(ctx context.Context, limit int) ([]int64, error) {
	return queryIDs(ctx, s.store.db, `
		SELECT DISTINCT p.movie_id FROM popular_movies p
		LEFT JOIN movies m ON m.id = p.movie_id
		WHERE p.movie_id IS NOT NULL AND m.id IS NULL
		ORDER BY p.movie_id ASC
		LIMIT ?
	`, sqlLimit(limit))
}

// ==================== Lists ====================

type filmListStore struct {
	store *Store
}

// Save creates or updates a list keyed by URL.
func (s *filmListStore) Save(ctx context.Context, list *domain.FilmList) error {
	if list == nil || list.URL == "" {
		return domain.ErrInvalidInput
	}
	ids := list.MovieIDs
	if ids == nil {
		ids = []int64{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding list movies: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO film_lists (
			url, title, description, owner, published, last_updated, ranked, visibility, movie_ids_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			owner = excluded.owner,
			published = excluded.published,
			last_updated = excluded.last_updated,
			ranked = excluded.ranked,
			visibility = excluded.visibility,
			movie_ids_json = excluded.movie_ids_json
	`, list.URL, list.Title, nullString(list.Description), nullString(list.Owner),
		formatTime(list.Published), formatTime(list.LastUpdated), boolToInt(list.Ranked),
		list.Visibility, string(idsJSON))
	if err != nil {
		return fmt.Errorf("saving list: %w", err)
	}
	return nil
}

// Get retrieves a list by URL.
func (s *filmListStore) Get(ctx context.Context, url string) (*domain.FilmList, error) {
	var l domain.FilmList
	var description, owner, published, updated sql.NullString
	var ranked int
	var idsJSON string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT url, title, description, owner, published, last_updated, ranked, visibility, movie_ids_json
		FROM film_lists WHERE url = ?
	`, url).Scan(&l.URL, &l.Title, &description, &owner, &published, &updated, &ranked, &l.Visibility, &idsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying list: %w", err)
	}

	if err := json.Unmarshal([]byte(idsJSON), &l.MovieIDs); err != nil {
		return nil, fmt.Errorf("decoding list movies: %w", err)
	}
	l.Description = description.String
	l.Owner = owner.String
	l.Published = parseTime(published)
	l.LastUpdated = parseTime(updated)
	l.Ranked = ranked == 1
	return &l, nil
}

func queryIDs(ctx context.Context, db *sql.DB, q string, args ...any) ([]int64, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}
