package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestScrapedEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   ScrapedEntry
		wantErr bool
	}{
		{"complete", ScrapedEntry{MovieID: ptr(int64(603)), Name: ptr("The Matrix")}, false},
		{"missing movie id", ScrapedEntry{Name: ptr("The Matrix"), Slug: ptr("/film/the-matrix/")}, true},
		{"missing name", ScrapedEntry{MovieID: ptr(int64(603))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMissingIdentity))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestScrapedEntry_Validate_MessageNamesFilm(t *testing.T) {
	err := ScrapedEntry{Slug: ptr("/film/heat/")}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/film/heat/")
}

func TestScrapedEntry_ToFilmEntry(t *testing.T) {
	e := ScrapedEntry{
		MovieID: ptr(int64(949)),
		Name:    ptr("Heat"),
		Slug:    ptr("/film/heat/"),
		Stars:   ptr(4.5),
		Heart:   ptr(true),
		SortID:  7,
	}

	entry := e.ToFilmEntry(42)

	assert.Equal(t, int64(42), entry.UserID)
	assert.Equal(t, int64(949), entry.MovieID)
	assert.Equal(t, "/film/heat/", entry.Slug)
	assert.Equal(t, 4.5, *entry.Stars)
	assert.Nil(t, entry.Rewatch)
	assert.Equal(t, 7, entry.SortID)
}

func TestNaturalKey_Matches(t *testing.T) {
	stored := FilmEntry{
		UserID:  1,
		MovieID: 949,
		Name:    "Heat",
		Slug:    "/film/heat/",
		Stars:   ptr(4.0),
		Heart:   ptr(false),
	}

	tests := []struct {
		name     string
		key      NaturalKey
		expected bool
	}{
		{
			name:     "exact match",
			key:      NaturalKey{MovieID: 949, UserID: 1, Name: "Heat", Slug: ptr("/film/heat/"), Stars: ptr(4.0), Heart: ptr(false)},
			expected: true,
		},
		{
			name:     "unknown fields match anything",
			key:      NaturalKey{MovieID: 949, UserID: 1, Name: "Heat"},
			expected: true,
		},
		{
			name:     "different rating",
			key:      NaturalKey{MovieID: 949, UserID: 1, Name: "Heat", Stars: ptr(3.5)},
			expected: false,
		},
		{
			name:     "heart known false is not unknown",
			key:      NaturalKey{MovieID: 949, UserID: 1, Name: "Heat", Heart: ptr(true)},
			expected: false,
		},
		{
			name:     "different owner",
			key:      NaturalKey{MovieID: 949, UserID: 2, Name: "Heat"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.key.Matches(stored))
		})
	}
}

func TestNaturalKey_StoredUnknownRating(t *testing.T) {
	stored := FilmEntry{UserID: 1, MovieID: 949, Name: "Heat"}
	key := NaturalKey{MovieID: 949, UserID: 1, Name: "Heat", Stars: ptr(4.0)}

	assert.False(t, key.Matches(stored))
}

func TestFilmPage_IsMovie(t *testing.T) {
	assert.True(t, FilmPage{}.IsMovie())
	assert.True(t, FilmPage{TmdbType: ptr("movie")}.IsMovie())
	assert.False(t, FilmPage{TmdbType: ptr("tv")}.IsMovie())
}

func TestMovieMetadata_ToMovie(t *testing.T) {
	meta := MovieMetadata{ID: 120, Title: "The Fellowship of the Ring", Collection: &Collection{ID: 119, Name: "LOTR"}}
	movie := meta.ToMovie()

	assert.Equal(t, int64(120), movie.ID)
	require.NotNil(t, movie.CollectionID)
	assert.Equal(t, int64(119), *movie.CollectionID)

	assert.Nil(t, MovieMetadata{ID: 1}.ToMovie().CollectionID)
}
