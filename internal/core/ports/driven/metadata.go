package driven

import (
	"context"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

// MetadataClient looks up structured movie metadata by numeric id.
// A failure is terminal for that single movie only.
type MetadataClient interface {
	GetMovie(ctx context.Context, id int64) (*domain.MovieMetadata, error)
}
