// Package ratelimit tracks the Synapse API request budget and gates requests.
// It reads the X-RateLimit-Remaining and X-RateLimit-Reset headers and the
// Retry-After header of 429 responses. State lives in Redis when available
// so that several client processes share one budget.
package ratelimit

import (
	"time"
)

// RedisKeyState holds the JSON-encoded RateLimitState.
const RedisKeyState = "synapse:rate_limit:state"

// Thresholds for rate limit decisions.
const (
	// RemainingCritical blocks requests when the remaining budget falls below it.
	RemainingCritical = 2

	// RemainingWarning throttles requests when the remaining budget falls below it.
	RemainingWarning = 10

	// RemainingHealthy marks the state healthy at or above it.
	RemainingHealthy = 25
)

// RateLimitState is the last observed request budget.
type RateLimitState struct {
	// Remaining requests in the current window (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (X-RateLimit-Reset, seconds from now).
	ResetAt time.Time `json:"reset_at"`

	// BlockedUntil is set from Retry-After on a 429 response.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastUpdate is when this state was last written.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingHealthy and no block is active.
	IsHealthy bool `json:"is_healthy"`
}

// defaultState is assumed until the server reports a budget.
func defaultState() *RateLimitState {
	now := time.Now()
	return &RateLimitState{
		Remaining:  100,
		ResetAt:    now.Add(60 * time.Second),
		LastUpdate: now,
		IsHealthy:  true,
	}
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// windowOpen reports whether the budget window is still running.
func (s *RateLimitState) windowOpen() bool {
	return time.Now().Before(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	if time.Now().Before(s.BlockedUntil) {
		return true
	}
	return s.windowOpen() && s.Remaining < RemainingCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.windowOpen() && s.Remaining < RemainingWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns how long until requests may flow freely again.
// Returns 0 if nothing is pending.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	until := s.ResetAt
	if s.BlockedUntil.After(until) {
		until = s.BlockedUntil
	}
	duration := time.Until(until)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingHealthy && !time.Now().Before(s.BlockedUntil)
}
