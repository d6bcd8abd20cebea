package driven

import "context"

// PageFetcher retrieves raw documents from the remote site.
// Implementations validate the origin, classify failures as retryable or
// terminal, and retry the retryable ones with bounded backoff.
type PageFetcher interface {
	// Fetch returns the body of a successful GET. A path without a host
	// is resolved against the allow-listed origin.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
