package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	requestsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synapse_rate_limit_remaining",
		Help: "Requests remaining in the current Synapse rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_rate_limit_blocks_total",
		Help: "Total number of requests blocked by the rate limit tracker",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_rate_limit_throttles_total",
		Help: "Total number of requests throttled by the rate limit tracker",
	})
)

// DefaultThrottleDelay is the pause applied in the warning band.
const DefaultThrottleDelay = 1 * time.Second

// Tracker monitors the API request budget and gates requests.
// With a nil Redis client the state is kept in memory.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger

	// ThrottleDelay is slept before a request in the warning band.
	ThrottleDelay time.Duration

	mu    sync.Mutex
	local *RateLimitState
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		logger:        logger,
		ThrottleDelay: DefaultThrottleDelay,
	}
}

// GetState returns the current state, or a default healthy state when none
// has been recorded.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.local == nil {
			return defaultState(), nil
		}
		state := *t.local
		return &state, nil
	}

	data, err := t.redis.Get(ctx, RedisKeyState).Bytes()
	if err == redis.Nil {
		t.logger.Debug().Msg("No rate limit state in Redis, returning default healthy state")
		return defaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	var state RateLimitState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse rate limit state: %w", err)
	}
	state.UpdateHealth()

	return &state, nil
}

// UpdateFromHeaders records the budget reported by a response.
// Responses without rate limit headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, status int, headers http.Header) error {
	now := time.Now()
	remainStr := headers.Get("X-RateLimit-Remaining")
	retryAfterStr := headers.Get("Retry-After")

	if remainStr == "" && !(status == http.StatusTooManyRequests && retryAfterStr != "") {
		return nil
	}

	state, err := t.GetState(ctx)
	if err != nil {
		return err
	}

	if remainStr != "" {
		remain, err := strconv.Atoi(remainStr)
		if err != nil {
			return fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
		}
		state.Remaining = remain

		if resetStr := headers.Get("X-RateLimit-Reset"); resetStr != "" {
			resetSeconds, err := strconv.Atoi(resetStr)
			if err != nil {
				return fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
			}
			state.ResetAt = now.Add(time.Duration(resetSeconds) * time.Second)
		}
	}

	if status == http.StatusTooManyRequests && retryAfterStr != "" {
		wait, err := parseRetryAfter(retryAfterStr, now)
		if err != nil {
			return err
		}
		state.BlockedUntil = now.Add(wait)
	}

	state.LastUpdate = now
	state.UpdateHealth()

	if err := t.store(ctx, state); err != nil {
		return err
	}

	requestsRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait", state.TimeUntilReset()).
			Msg("Rate limit CRITICAL - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Rate limit WARNING - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Bool("is_healthy", state.IsHealthy).
			Msg("Rate limit state updated")
	}

	return nil
}

func (t *Tracker) store(ctx context.Context, state *RateLimitState) error {
	if t.redis == nil {
		t.mu.Lock()
		s := *state
		t.local = &s
		t.mu.Unlock()
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal rate limit state: %w", err)
	}

	// Keep the key a little past the window so stale budgets expire on their own.
	ttl := state.TimeUntilReset() + time.Minute
	if err := t.redis.Set(ctx, RedisKeyState, data, ttl).Err(); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, nil
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return 0, fmt.Errorf("parse Retry-After header: %w", err)
	}
	if at.Before(now) {
		return 0, nil
	}
	return at.Sub(now), nil
}

// ShouldAllowRequest reports whether a request may be sent now.
// In the warning band it waits ThrottleDelay first; ctx cancels the wait.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Rate limit critical - blocking request")

		rateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() && t.ThrottleDelay > 0 {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Rate limit warning - throttling request")

		rateLimitThrottlesTotal.Inc()
		timer := time.NewTimer(t.ThrottleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
