package domain

import "time"

// Movie is a catalog movie keyed by its metadata API id.
type Movie struct {
	ID                int64
	Title             string
	CollectionID      *int64
	SyncedCollections bool
	SyncedCredits     bool
}

// Collection is a group of related movies, such as a franchise.
type Collection struct {
	ID           int64
	Name         string
	PosterPath   string
	BackdropPath string
}

// CastRole links a person to a movie as a performer.
type CastRole struct {
	MovieID   int64
	PersonID  int64
	Name      string
	Character string
	Order     int
}

// CrewRole links a person to a movie as a crew member.
type CrewRole struct {
	MovieID    int64
	PersonID   int64
	Name       string
	Job        string
	Department string
}

// MovieMetadata is what the metadata API returns for one movie id.
type MovieMetadata struct {
	ID         int64
	Title      string
	Collection *Collection
	Cast       []CastRole
	Crew       []CrewRole
}

// ToMovie converts the metadata into a catalog movie.
func (m MovieMetadata) ToMovie() Movie {
	movie := Movie{ID: m.ID, Title: m.Title}
	if m.Collection != nil && m.Collection.ID > 0 {
		id := m.Collection.ID
		movie.CollectionID = &id
	}
	return movie
}

// PopularMovie is a movie discovered on a popularity listing.
type PopularMovie struct {
	Slug          string
	ID            *int64
	Name          string
	AverageRating *float64
}

// FilmList is a user's public list with the movie ids it contains.
type FilmList struct {
	URL         string
	Title       string
	Description string
	Owner       string
	Published   time.Time
	LastUpdated time.Time
	Ranked      bool
	Visibility  string
	MovieIDs    []int64
}
