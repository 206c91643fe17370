package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/synapse-news/synapse-client/pkg/feed"
)

var (
	batchPagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_batch_pages_fetched_total",
		Help: "Pages fetched by the batch fetcher by mode",
	}, []string{"mode"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "synapse_batch_fetch_duration_seconds",
		Help:    "Duration of complete batch fetches",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests
	MaxConcurrency int

	// Timeout per page fetch
	Timeout time.Duration

	// PageSize is the number of items requested per page
	PageSize int

	// MaxPages caps how many pages are fetched
	MaxPages int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		PageSize:       50,
		MaxPages:       100,
	}
}

// BatchFetcher collects all pages of a feed.
type BatchFetcher[T any] struct {
	config Config
	logger zerolog.Logger
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher[T any](config Config) *BatchFetcher[T] {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.MaxPages <= 0 {
		config.MaxPages = defaults.MaxPages
	}

	return &BatchFetcher[T]{
		config: config,
		logger: log.With().Str("component", "batch-fetcher").Logger(),
	}
}

// FetchAll fetches every page of fetch and returns the items in page order.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, fetch feed.FetchFunc[T]) ([]T, error) {
	start := time.Now()
	defer func() {
		batchDuration.Observe(time.Since(start).Seconds())
	}()

	first, err := bf.fetchPage(ctx, fetch, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}
	batchPagesFetched.WithLabelValues("first").Inc()

	if !bf.more(1, first) {
		bf.logger.Debug().Int("pages", 1).Int("items", len(first.Items)).Msg("Fetch complete (single page)")
		return first.Items, nil
	}

	if first.Pagination.Complete() {
		return bf.fetchParallel(ctx, fetch, first, start)
	}
	return bf.fetchSequential(ctx, fetch, first, start)
}

// more reports whether another page should follow page.
func (bf *BatchFetcher[T]) more(page int, result feed.Page[T]) bool {
	if page >= bf.config.MaxPages {
		return false
	}
	switch p := result.Pagination; {
	case len(result.Items) == 0:
		return false
	case p.Complete():
		return p.Page < p.Pages
	default:
		return len(result.Items) >= bf.config.PageSize
	}
}

func (bf *BatchFetcher[T]) fetchSequential(ctx context.Context, fetch feed.FetchFunc[T], first feed.Page[T], start time.Time) ([]T, error) {
	items := first.Items
	page := 1
	for {
		page++
		result, err := bf.fetchPage(ctx, fetch, page)
		if err != nil {
			return items, fmt.Errorf("fetch page %d (partial data: %d pages): %w", page, page-1, err)
		}
		batchPagesFetched.WithLabelValues("sequential").Inc()
		items = append(items, result.Items...)

		if !bf.more(page, result) {
			break
		}
	}

	bf.logger.Info().
		Int("pages", page).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete (sequential)")
	return items, nil
}

func (bf *BatchFetcher[T]) fetchParallel(ctx context.Context, fetch feed.FetchFunc[T], first feed.Page[T], start time.Time) ([]T, error) {
	totalPages := first.Pagination.Pages
	if totalPages > bf.config.MaxPages {
		bf.logger.Warn().
			Int("total_pages", totalPages).
			Int("max_pages", bf.config.MaxPages).
			Msg("Page count capped")
		totalPages = bf.config.MaxPages
	}

	bf.logger.Info().
		Int("total_pages", totalPages).
		Int("concurrency", bf.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	pages := make([][]T, totalPages+1)
	done := make([]bool, totalPages+1)
	pages[1] = first.Items
	done[1] = true

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)
	for page := 2; page <= totalPages; page++ {
		g.Go(func() error {
			result, err := bf.fetchPage(gctx, fetch, page)
			if err != nil {
				return fmt.Errorf("fetch page %d: %w", page, err)
			}
			batchPagesFetched.WithLabelValues("parallel").Inc()
			pages[page] = result.Items
			done[page] = true
			return nil
		})
	}
	groupErr := g.Wait()

	var items []T
	for page := 1; page <= totalPages; page++ {
		if !done[page] {
			bf.logger.Warn().
				Err(groupErr).
				Int("fetched_pages", page-1).
				Int("total_pages", totalPages).
				Msg("Page fetch failed - returning partial results")
			return items, fmt.Errorf("partial data: %d/%d pages: %w", page-1, totalPages, groupErr)
		}
		items = append(items, pages[page]...)
	}

	bf.logger.Info().
		Int("pages", totalPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")
	return items, nil
}

func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, fetch feed.FetchFunc[T], page int) (feed.Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()
	return fetch(pageCtx, page, bf.config.PageSize)
}
