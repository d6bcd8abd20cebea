package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/filmsync/internal/logger"
	"github.com/custodia-labs/filmsync/internal/metrics"
)

// StopReason explains why a walk ended.
type StopReason string

// Walk stop reasons.
const (
	StopEmptyPage  StopReason = "empty_page"
	StopPageCap    StopReason = "page_cap"
	StopItemCap    StopReason = "item_cap"
	StopLastPage   StopReason = "last_page"
	StopNothingNew StopReason = "nothing_new"
	StopError      StopReason = "error"
)

// Walk modes used as metric labels.
const (
	walkDiscovery   = "discovery"
	walkIncremental = "incremental"
)

// PageFunc returns up to limit records from page. A limit of zero means no limit.
type PageFunc[T any] func(ctx context.Context, page, limit int) ([]T, error)

// DiscoverOptions configures Discover.
type DiscoverOptions[T any] struct {
	// MaxItems caps the accumulated records. Zero means no item cap.
	MaxItems int

	// MaxPages caps the pages requested. Zero means no page cap.
	MaxPages int

	// Page fetches one page.
	Page PageFunc[T]

	// ProcessPage, when set, receives every page and returns the records to
	// accumulate. It is how callers persist as they walk. An error aborts the walk.
	ProcessPage func(ctx context.Context, batch []T) ([]T, error)
}

// DiscoverResult is returned by Discover.
type DiscoverResult[T any] struct {
	Items  []T
	Pages  int
	Reason StopReason
}

// Discover accumulates records page by page from page 1 until a page comes
// back empty, the page cap is reached or MaxItems records are held.
// Each page is asked for at most the remaining item budget.
func Discover[T any](ctx context.Context, opts DiscoverOptions[T]) (DiscoverResult[T], error) {
	var result DiscoverResult[T]

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return result, stop(walkDiscovery, StopError, err)
		}

		limit := 0
		if opts.MaxItems > 0 {
			limit = opts.MaxItems - len(result.Items)
		}

		batch, err := opts.Page(ctx, page, limit)
		if err != nil {
			return result, stop(walkDiscovery, StopError, fmt.Errorf("page %d: %w", page, err))
		}
		result.Pages = page
		metrics.WalkerPagesTotal.WithLabelValues(walkDiscovery).Inc()

		if limit > 0 && len(batch) > limit {
			batch = batch[:limit]
		}
		fetched := len(batch)
		if opts.ProcessPage != nil && fetched > 0 {
			batch, err = opts.ProcessPage(ctx, batch)
			if err != nil {
				return result, stop(walkDiscovery, StopError, fmt.Errorf("process page %d: %w", page, err))
			}
		}
		result.Items = append(result.Items, batch...)

		// A page whose records were all dropped by ProcessPage is not the end.
		switch {
		case fetched == 0:
			result.Reason = StopEmptyPage
		case opts.MaxPages > 0 && page >= opts.MaxPages:
			result.Reason = StopPageCap
		case opts.MaxItems > 0 && len(result.Items) >= opts.MaxItems:
			result.Reason = StopItemCap
		}
		if result.Reason != "" {
			break
		}
	}

	logger.Debug("Discovery stopped after %d page(s): %s", result.Pages, result.Reason)
	_ = stop(walkDiscovery, result.Reason, nil)
	return result, nil
}

// IncrementalOptions configures Incremental.
type IncrementalOptions[T any] struct {
	// StartPage is the first page requested. Defaults to 1.
	StartPage int

	// LastPage is the last page requested. Zero walks until a page is empty.
	LastPage int

	// MaxItems caps the records persisted. Zero means no cap.
	MaxItems int

	// BaseSortID offsets the sequence numbers handed to Persist.
	BaseSortID int

	// Page fetches one page.
	Page PageFunc[T]

	// Validate rejects a record that lacks identity. The walk aborts and the
	// page it belongs to is not persisted. Records after the page's first
	// duplicate are not validated.
	Validate func(item T) error

	// IsDuplicate reports whether a record is already stored. Nil disables
	// deduplication. A page is cut at its first duplicate and the walk ends
	// once a page contributes nothing new.
	IsDuplicate func(ctx context.Context, item T) (bool, error)

	// Persist stores a record with its sequence number.
	Persist func(ctx context.Context, item T, seq int) error
}

// IncrementalResult is returned by Incremental.
type IncrementalResult[T any] struct {
	Synced []T
	Pages  int
	Reason StopReason
}

// Incremental walks pages, validating and deduplicating each one before
// persisting its new prefix. Sequence numbers continue from BaseSortID
// across pages so the first record persisted gets BaseSortID+1.
func Incremental[T any](ctx context.Context, opts IncrementalOptions[T]) (IncrementalResult[T], error) {
	var result IncrementalResult[T]

	page := opts.StartPage
	if page <= 0 {
		page = 1
	}

	for ; ; page++ {
		if err := ctx.Err(); err != nil {
			return result, stop(walkIncremental, StopError, err)
		}

		limit := 0
		if opts.MaxItems > 0 {
			limit = opts.MaxItems - len(result.Synced)
		}

		batch, err := opts.Page(ctx, page, limit)
		if err != nil {
			return result, stop(walkIncremental, StopError, fmt.Errorf("page %d: %w", page, err))
		}
		result.Pages++
		metrics.WalkerPagesTotal.WithLabelValues(walkIncremental).Inc()

		if len(batch) == 0 {
			result.Reason = StopEmptyPage
			break
		}

		fresh, dup, err := opts.cut(ctx, batch)
		if err != nil {
			return result, stop(walkIncremental, StopError, fmt.Errorf("page %d: %w", page, err))
		}
		if dup {
			logger.Debug("Page %d: %d new record(s) before first known one", page, len(fresh))
		}
		if limit > 0 && len(fresh) > limit {
			fresh = fresh[:limit]
		}

		for i, item := range fresh {
			seq := opts.BaseSortID + len(result.Synced) + 1
			if err := opts.Persist(ctx, item, seq); err != nil {
				return result, stop(walkIncremental, StopError, fmt.Errorf("persist page %d item %d: %w", page, i, err))
			}
			result.Synced = append(result.Synced, item)
		}

		switch {
		case len(fresh) == 0:
			result.Reason = StopNothingNew
		case opts.MaxItems > 0 && len(result.Synced) >= opts.MaxItems:
			result.Reason = StopItemCap
		case opts.LastPage > 0 && page >= opts.LastPage:
			result.Reason = StopLastPage
		}
		if result.Reason != "" {
			break
		}
	}

	logger.Debug("Incremental walk stopped after %d page(s) with %d new: %s",
		result.Pages, len(result.Synced), result.Reason)
	_ = stop(walkIncremental, result.Reason, nil)
	return result, nil
}

// cut returns the prefix of the page before its first duplicate and whether
// a duplicate was found. Records are validated in order up to that point;
// anything after the duplicate is never looked at.
func (o IncrementalOptions[T]) cut(ctx context.Context, batch []T) ([]T, bool, error) {
	for i, item := range batch {
		if o.Validate != nil {
			if err := o.Validate(item); err != nil {
				return nil, false, err
			}
		}
		if o.IsDuplicate == nil {
			continue
		}
		dup, err := o.IsDuplicate(ctx, item)
		if err != nil {
			return nil, false, fmt.Errorf("check duplicate: %w", err)
		}
		if dup {
			return batch[:i], true, nil
		}
	}
	return batch, false, nil
}

// stop counts a walk's end and passes err through.
func stop(mode string, reason StopReason, err error) error {
	metrics.WalkerStopsTotal.WithLabelValues(mode, string(reason)).Inc()
	return err
}
