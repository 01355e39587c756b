package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/fred-client/pkg/client"
	"github.com/Sternrassler/fred-client/pkg/logging"
	"github.com/Sternrassler/fred-client/pkg/series"
)

// MaxPageSize is the largest limit FRED accepts for series/observations.
const MaxPageSize = 100000

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel resolutions
	MaxConcurrency int

	// Timeout per resolution
	Timeout time.Duration

	// PageSize is the limit used by FetchAllPages (max MaxPageSize)
	PageSize int
}

// DefaultConfig returns safe default configuration for FRED
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        30 * time.Second,
		PageSize:       MaxPageSize,
	}
}

// Resolver is the single-request operation the fetcher fans out.
// *client.Client implements it.
type Resolver interface {
	Fetch(ctx context.Context, fragment string, lookup client.Lookup) ([]byte, error)
}

// Result is the outcome of one fragment.
type Result struct {
	Body []byte
	Err  error
}

// Fetcher handles parallel resolution of many requests
type Fetcher struct {
	resolver Resolver
	config   Config
	logger   zerolog.Logger
}

// NewFetcher creates a new batch fetcher
func NewFetcher(resolver Resolver, config Config) *Fetcher {
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.PageSize <= 0 || config.PageSize > MaxPageSize {
		config.PageSize = MaxPageSize
	}

	return &Fetcher{
		resolver: resolver,
		config:   config,
		logger:   logging.NewLogger(logging.ComponentBatch),
	}
}

// FetchAll resolves every fragment with lookup and returns one Result per
// distinct fragment. Fragments not started before ctx is done carry ctx's error.
func (f *Fetcher) FetchAll(ctx context.Context, fragments []string, lookup client.Lookup) map[string]Result {
	start := time.Now()

	results := make(map[string]Result, len(fragments))
	var resultsMu sync.Mutex

	var eg errgroup.Group
	eg.SetLimit(f.config.MaxConcurrency)

	for _, fragment := range fragments {
		resultsMu.Lock()
		_, seen := results[fragment]
		if !seen {
			// Reserve the slot so duplicates are skipped.
			results[fragment] = Result{}
		}
		resultsMu.Unlock()
		if seen {
			continue
		}

		if err := ctx.Err(); err != nil {
			resultsMu.Lock()
			results[fragment] = Result{Err: err}
			resultsMu.Unlock()
			continue
		}

		eg.Go(func() error {
			body, err := f.fetch(ctx, fragment, lookup)
			if err != nil {
				f.logger.Warn().Err(err).Str("fragment", fragment).Msg("Batch fetch failed")
			}

			resultsMu.Lock()
			results[fragment] = Result{Body: body, Err: err}
			resultsMu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	f.logger.Debug().
		Int("requests", len(results)).
		Str("lookup", lookup.String()).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	return results
}

// FetchAllPages fetches every limit/offset page of a series' observations in
// parallel. It returns a map of each page's offset parameter to its body; the
// first page is keyed by opts.Offset. On failure it returns the pages fetched
// so far together with the first error.
func (f *Fetcher) FetchAllPages(ctx context.Context, seriesID string, opts series.ObservationOptions, lookup client.Lookup) (map[int][]byte, error) {
	start := time.Now()
	pageSize := f.config.PageSize
	baseOffset := opts.Offset

	offset := func(n int) int { return baseOffset + (n-1)*pageSize }
	page := func(n int) string {
		o := opts
		o.Limit = pageSize
		o.Offset = offset(n)
		return series.ObservationsFragment(seriesID, o)
	}

	// Fetch first page to get the total count
	first, err := f.fetch(ctx, page(1), lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}
	count, err := series.ObservationCount(first)
	if err != nil {
		return nil, fmt.Errorf("read observation count: %w", err)
	}

	totalPages := 1
	if remaining := count - baseOffset; remaining > pageSize {
		totalPages = (remaining + pageSize - 1) / pageSize
	}

	f.logger.Info().
		Str("series_id", seriesID).
		Int("count", count).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	pages := map[int][]byte{baseOffset: first}
	if totalPages == 1 {
		return pages, nil
	}

	fragments := make([]string, 0, totalPages-1)
	for n := 2; n <= totalPages; n++ {
		fragments = append(fragments, page(n))
	}
	results := f.FetchAll(ctx, fragments, lookup)

	var firstErr error
	for n := 2; n <= totalPages; n++ {
		r := results[page(n)]
		if r.Err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page at offset %d: %w", offset(n), r.Err)
			}
			continue
		}
		pages[offset(n)] = r.Body
	}

	if firstErr != nil {
		f.logger.Warn().
			Err(firstErr).
			Int("fetched_pages", len(pages)).
			Int("total_pages", totalPages).
			Msg("Returning partial results")
		return pages, fmt.Errorf("partial data (%d/%d pages): %w", len(pages), totalPages, firstErr)
	}

	f.logger.Info().
		Str("series_id", seriesID).
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return pages, nil
}

func (f *Fetcher) fetch(ctx context.Context, fragment string, lookup client.Lookup) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()
	return f.resolver.Fetch(ctx, fragment, lookup)
}
