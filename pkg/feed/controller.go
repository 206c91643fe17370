package feed

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultErrorMessage is stored when a fetch fails without a usable message.
const DefaultErrorMessage = "failed to load data"

// Config holds controller configuration.
type Config struct {
	// PageSize is the number of items requested per page (default 10)
	PageSize int

	// FetchTimeout bounds a single fetch. Zero disables the bound, so a hung
	// fetch keeps the controller loading until it returns.
	FetchTimeout time.Duration

	// OnChange is called after every state transition, outside the lock
	OnChange func()

	// Logger overrides the component logger
	Logger *zerolog.Logger
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: 10,
	}
}

// Snapshot is a consistent copy of the controller state.
type Snapshot[T any] struct {
	Items   []T
	Page    int
	HasMore bool
	Loading bool
	Err     string
}

// Controller accumulates pages from a FetchFunc.
type Controller[T any] struct {
	fetch  FetchFunc[T]
	config Config
	logger zerolog.Logger

	mu      sync.Mutex
	items   []T
	page    int
	hasMore bool
	loading bool
	err     string

	// epoch is bumped by Reset; fetches started under an older epoch are discarded
	epoch uint64
	// armed is true while the automatic first load is still pending
	armed bool

	deps    []any
	depsSet bool
}

// New creates a controller bound to fetch.
func New[T any](fetch FetchFunc[T], cfg Config) *Controller[T] {
	if fetch == nil {
		panic("fetch function cannot be nil")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}

	logger := log.With().Str("component", "feed").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Controller[T]{
		fetch:   fetch,
		config:  cfg,
		logger:  logger,
		page:    1,
		hasMore: true,
		armed:   true,
	}
}

// LoadMore fetches the next page and merges it into the state.
// It returns immediately when a fetch is in flight or the feed is exhausted.
// Fetch errors are recorded in the state, never returned.
func (c *Controller[T]) LoadMore(ctx context.Context) {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		loading, hasMore := c.loading, c.hasMore
		c.mu.Unlock()
		pageLoadsSkipped.Inc()
		c.logger.Debug().
			Bool("loading", loading).
			Bool("has_more", hasMore).
			Msg("Load skipped")
		return
	}
	c.loading = true
	c.err = ""
	epoch := c.epoch
	page := c.page
	c.mu.Unlock()

	defer c.finish(epoch)
	c.notify()

	start := time.Now()
	result, err := c.fetchPage(ctx, page)
	pageFetchDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		pageLoadsTotal.WithLabelValues("stale").Inc()
		c.logger.Debug().
			Int("page", page).
			Uint64("epoch", epoch).
			Uint64("current_epoch", c.epoch).
			Msg("Discarding stale page")
		return
	}

	if err != nil {
		c.err = err.Error()
		if c.err == "" {
			c.err = DefaultErrorMessage
		}
		pageLoadsTotal.WithLabelValues("error").Inc()
		c.logger.Warn().
			Err(err).
			Int("page", page).
			Msg("Page load failed")
		return
	}

	c.merge(page, result)
}

// merge applies a successful page. Caller holds c.mu.
func (c *Controller[T]) merge(page int, result Page[T]) {
	n := len(result.Items)
	event := c.logger.Debug().
		Int("page", page).
		Int("items_loaded", n)

	switch p := result.Pagination; {
	case n == 0:
		c.hasMore = false
		pageLoadsTotal.WithLabelValues("empty").Inc()
		event.Bool("has_more", false).Msg("Empty page, feed exhausted")
		return
	case p.Complete():
		c.hasMore = p.Page < p.Pages
		event = event.Int("server_page", p.Page).Int("server_pages", p.Pages)
	case n < c.config.PageSize:
		c.hasMore = false
		event = event.Int("page_size", c.config.PageSize)
	default:
		c.hasMore = true
	}

	c.page++
	c.items = append(c.items, result.Items...)

	if c.hasMore {
		pageLoadsTotal.WithLabelValues("more").Inc()
	} else {
		pageLoadsTotal.WithLabelValues("exhausted").Inc()
	}
	event.Bool("has_more", c.hasMore).
		Int("total_items", len(c.items)).
		Msg("Page loaded")
}

// fetchPage calls the fetch function, converting a panic into an error.
func (c *Controller[T]) fetchPage(ctx context.Context, page int) (result Page[T], err error) {
	if c.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.FetchTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch page %d: panic: %v", page, r)
		}
	}()

	return c.fetch(ctx, page, c.config.PageSize)
}

// finish clears the loading flag unless a Reset happened meanwhile.
func (c *Controller[T]) finish(epoch uint64) {
	c.mu.Lock()
	if epoch == c.epoch {
		c.loading = false
	}
	c.mu.Unlock()
	c.notify()
}

// Reset rewinds the state to its initial values and re-arms the automatic
// first load. A fetch in flight is not cancelled; its result is dropped.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	c.epoch++
	c.items = nil
	c.page = 1
	c.hasMore = true
	c.loading = false
	c.err = ""
	c.armed = true
	epoch := c.epoch
	c.mu.Unlock()

	c.logger.Debug().Uint64("epoch", epoch).Msg("Feed reset")
	c.notify()
}

// Activate performs the automatic first load once per arming.
// The controller starts armed and Reset re-arms it.
func (c *Controller[T]) Activate(ctx context.Context) {
	c.mu.Lock()
	if !c.armed {
		c.mu.Unlock()
		return
	}
	c.armed = false
	c.mu.Unlock()

	c.LoadMore(ctx)
}

// SetDependencies records the values the feed depends on (for example the
// selected topic). A change from the previous values resets the feed; the
// automatic first load then runs either way.
func (c *Controller[T]) SetDependencies(ctx context.Context, deps ...any) {
	c.mu.Lock()
	changed := c.depsSet && !equalDeps(c.deps, deps)
	c.deps = slices.Clone(deps)
	c.depsSet = true
	c.mu.Unlock()

	if changed {
		c.logger.Debug().Interface("dependencies", deps).Msg("Dependencies changed")
		c.Reset()
	}
	c.Activate(ctx)
}

func equalDeps(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Items returns a copy of the accumulated items.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Loading reports whether a fetch is in flight.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// HasMore reports whether further pages may exist.
func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Err returns the last failure message, empty when none.
func (c *Controller[T]) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Page returns the next page number to request.
func (c *Controller[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PageSize returns the configured page size.
func (c *Controller[T]) PageSize() int {
	return c.config.PageSize
}

// Snapshot returns a consistent copy of the whole state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{
		Items:   slices.Clone(c.items),
		Page:    c.page,
		HasMore: c.hasMore,
		Loading: c.loading,
		Err:     c.err,
	}
}

func (c *Controller[T]) notify() {
	if c.config.OnChange != nil {
		c.config.OnChange()
	}
}
