package metadata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.MetadataClient = (*FileClient)(nil)

// FileClient serves movie metadata from a directory of TMDB movie responses,
// one "<id>.json" file per movie fetched with append_to_response=credits.
type FileClient struct {
	dir string
}

// NewFileClient creates a client reading from dir.
func NewFileClient(dir string) (*FileClient, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("metadata dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("metadata dir %s: %w", dir, domain.ErrInvalidInput)
	}
	return &FileClient{dir: dir}, nil
}

// tmdbMovie is the subset of a TMDB movie response that is stored.
type tmdbMovie struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Collection *struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		PosterPath   string `json:"poster_path"`
		BackdropPath string `json:"backdrop_path"`
	} `json:"belongs_to_collection"`
	Credits struct {
		Cast []struct {
			ID        int64  `json:"id"`
			Name      string `json:"name"`
			Character string `json:"character"`
			Order     int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			ID         int64  `json:"id"`
			Name       string `json:"name"`
			Job        string `json:"job"`
			Department string `json:"department"`
		} `json:"crew"`
	} `json:"credits"`
}

// GetMovie reads the response for id. A missing file is domain.ErrNotFound.
func (c *FileClient) GetMovie(ctx context.Context, id int64) (*domain.MovieMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := filepath.Join(c.dir, strconv.FormatInt(id, 10)+".json")
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("movie %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read movie %d: %w", id, err)
	}

	var raw tmdbMovie
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode movie %d: %w", id, err)
	}
	if raw.ID != id {
		return nil, fmt.Errorf("movie %d: file holds id %d: %w", id, raw.ID, domain.ErrInvalidInput)
	}

	movie := &domain.MovieMetadata{ID: raw.ID, Title: raw.Title}
	if raw.Collection != nil {
		movie.Collection = &domain.Collection{
			ID:           raw.Collection.ID,
			Name:         raw.Collection.Name,
			PosterPath:   raw.Collection.PosterPath,
			BackdropPath: raw.Collection.BackdropPath,
		}
	}
	for _, c := range raw.Credits.Cast {
		movie.Cast = append(movie.Cast, domain.CastRole{
			MovieID:   id,
			PersonID:  c.ID,
			Name:      c.Name,
			Character: c.Character,
			Order:     c.Order,
		})
	}
	for _, c := range raw.Credits.Crew {
		movie.Crew = append(movie.Crew, domain.CrewRole{
			MovieID:    id,
			PersonID:   c.ID,
			Name:       c.Name,
			Job:        c.Job,
			Department: c.Department,
		})
	}
	return movie, nil
}
