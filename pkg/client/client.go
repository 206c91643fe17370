// Package client provides the Synapse HTTP API client with cookie sessions,
// response caching, rate limiting, retries and a circuit breaker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/synapse-news/synapse-client/pkg/cache"
	"github.com/synapse-news/synapse-client/pkg/ratelimit"
)

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_requests_total",
		Help: "Total Synapse API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "synapse_request_duration_seconds",
		Help:    "Synapse API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_errors_total",
		Help: "Total Synapse API errors by class",
	}, []string{"class"})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synapse_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	})
)

// DefaultUserAgent identifies the client when Config.UserAgent is empty.
const DefaultUserAgent = "synapse-client/1.0"

// Client is the Synapse API client. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	jar         *sessionJar
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	breaker     *gobreaker.CircuitBreaker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the Synapse API (e.g. "http://localhost:5000")
	BaseURL string

	// Redis client for the response cache and shared rate limit state.
	// Optional: nil disables caching and keeps rate limit state in memory.
	Redis *redis.Client

	// UserAgent header sent with every request
	UserAgent string

	// HTTPTimeout bounds a single HTTP attempt
	HTTPTimeout time.Duration

	// Retry policy for server, rate limit and network failures
	Retry RetryConfig

	// CacheTTL applies to GET responses without freshness headers
	CacheTTL time.Duration

	// BreakerFailures consecutive failures open the circuit breaker
	BreakerFailures uint32

	// BreakerCooldown is how long the breaker stays open
	BreakerCooldown time.Duration
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		UserAgent:       DefaultUserAgent,
		HTTPTimeout:     15 * time.Second,
		Retry:           DefaultRetryConfig(),
		CacheTTL:        cache.DefaultTTL,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// New creates a new Synapse client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	logger := log.With().Str("component", "synapse-client").Logger()

	c := &Client{
		baseURL:     base,
		jar:         newSessionJar(),
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		config:      cfg,
		logger:      logger,
	}
	c.httpClient = &http.Client{
		Timeout: cfg.HTTPTimeout,
		Jar:     c.jar,
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "synapse-api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.Set(float64(to))
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return c, nil
}

// Do performs an HTTP request with rate limiting, caching, retries and the
// circuit breaker. Non-2xx responses other than 304 are returned as is.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: rate limit gate
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().Str("endpoint", endpoint).Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, ErrRateLimited
	}

	// Step 2: cache lookup for GET
	var cacheKey cache.Key
	var cached *cache.Entry
	cacheable := c.cache != nil && req.Method == http.MethodGet
	if cacheable {
		cacheKey = cache.Key{
			Path:  req.URL.Path,
			Query: req.URL.Query(),
			Scope: cache.ScopeFromToken(c.jar.value(req.URL, AccessTokenCookie)),
		}

		cached, err = c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}

		// Entries with a validator are always revalidated; the rest are
		// served until they expire.
		if cached != nil && !cached.AddValidators(req) {
			c.logger.Debug().Str("endpoint", endpoint).Msg("Serving fresh cached response")
			requestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return cached.Response(req), nil
		}
	}

	// Step 3: headers
	c.setHeaders(req)

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Msg("Executing Synapse request")

	// Step 4: breaker, plus retry for reads. A mutation may already have
	// been applied when a 5xx or a dropped connection comes back, so it is
	// sent once.
	var resp *http.Response
	if !retryable(req.Method) {
		r, _, err := c.attempt(req, endpoint)
		if err != nil {
			return nil, err
		}
		resp = r
	} else {
		retryErr := retryWithBackoff(ctx, c.config.Retry, c.logger, func() (ErrorClass, error) {
			r, class, err := c.attempt(req, endpoint)
			if err != nil {
				return class, err
			}
			resp = r
			return "", nil
		})
		if retryErr != nil {
			return nil, retryErr
		}
	}

	// Step 5: 304 serves the cached body
	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		if cached == nil {
			c.logger.Warn().Str("endpoint", endpoint).Msg("304 Not Modified without a cached entry")
			return nil, &APIError{
				StatusCode: http.StatusNotModified,
				ErrorClass: ErrorClassServer,
				Message:    "not modified, but no cached response to serve",
			}
		}
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		freshUntil := cache.FreshUntil(resp.Header, c.cache.DefaultTTL())
		if err := c.cache.Touch(ctx, cacheKey, cached, freshUntil); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to extend cache entry")
		}
		return cached.Response(req), nil
	}

	// Step 6: store successful GETs
	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.FromResponse(resp, c.cache.DefaultTTL())
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		case entry == nil || entry.TTL() <= 0:
		default:
			if err := c.cache.Put(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// retryable reports whether a request with this method may be sent again
// after a failure.
func retryable(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// attempt sends req once through the circuit breaker. Server, rate limit and
// network failures come back as errors and count against the breaker; any
// other response is returned for the caller to interpret.
func (c *Client) attempt(req *http.Request, endpoint string) (*http.Response, ErrorClass, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if err := c.rateLimiter.UpdateFromHeaders(req.Context(), resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		status := strconv.Itoa(resp.StatusCode)
		requestsTotal.WithLabelValues(endpoint, status).Inc()

		class := classifyStatus(resp.StatusCode)
		if class != "" {
			errorsTotal.WithLabelValues(string(class)).Inc()
		}
		if !shouldRetry(class) {
			return resp, nil
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Synapse request error")

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    errorMessage(body),
		}
	})

	if err == nil {
		return out.(*http.Response), "", nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		requestsTotal.WithLabelValues(endpoint, "circuit_open").Inc()
		return nil, "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return nil, apiErr.ErrorClass, apiErr
	}

	if req.Context().Err() != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrContextCancelled, req.Context().Err())
	}

	c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
	errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
	return nil, ErrorClassNetwork, &APIError{
		ErrorClass: ErrorClassNetwork,
		Message:    "network error",
		Err:        err,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Body != http.NoBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		if token := c.jar.value(req.URL, CSRFTokenCookie); token != "" {
			req.Header.Set("X-CSRF-TOKEN", token)
		}
	}
}

// Get calls a GET endpoint and decodes the response data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

// Post calls a POST endpoint with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, nil, body, out)
}

// Put calls a PUT endpoint with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, nil, body, out)
}

// Delete calls a DELETE endpoint.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, out)
}

// GetRaw calls a GET endpoint and returns the unwrapped response data.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.send(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	data, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    errorMessage(raw),
		}
	}

	return unwrapData(raw), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Cookies returns the session cookies held for the API.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies adds cookies to the session, e.g. ones restored from disk.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

// ClearCookies drops every session cookie.
func (c *Client) ClearCookies() {
	c.jar.reset()
}

// InvalidateCache removes cached responses under path, which is relative
// to the base URL. It is a no-op without Redis.
func (c *Client) InvalidateCache(ctx context.Context, path string) {
	if c.cache == nil {
		return
	}
	n, err := c.cache.InvalidatePath(ctx, c.baseURL.Path+"/"+strings.TrimLeft(path, "/"))
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("Failed to invalidate cache")
		return
	}
	c.logger.Debug().Str("path", path).Int("removed", n).Msg("Invalidated cache")
}

// personalFeedPaths are the feeds built from the user's topics and sources.
var personalFeedPaths = []string{"/news/for-you", "/news/topic/"}

// mainFeedPath is matched exactly so the lists below /news survive.
const mainFeedPath = "/news/"

// invalidateFeeds drops every cached feed page after a preference change.
func (c *Client) invalidateFeeds(ctx context.Context) {
	if c.cache == nil {
		return
	}
	for _, p := range personalFeedPaths {
		c.InvalidateCache(ctx, p)
	}
	n, err := c.cache.InvalidateExactPath(ctx, c.baseURL.Path+mainFeedPath)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", mainFeedPath).Msg("Failed to invalidate cache")
		return
	}
	c.logger.Debug().Str("path", mainFeedPath).Int("removed", n).Msg("Invalidated cache")
}

// Logger returns the client's component logger.
func (c *Client) Logger() zerolog.Logger {
	return c.logger
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient swaps the transport. The session jar is kept.
func (c *Client) SetHTTPClient(client *http.Client) {
	client.Jar = c.jar
	c.httpClient = client
}

// endpointLabel collapses numeric path segments so metric labels stay bounded.
func endpointLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.Atoi(s); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
