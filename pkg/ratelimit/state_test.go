package ratelimit

import (
	"testing"
	"time"
)

func TestRateLimitState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *RateLimitState
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh state",
			state:    &RateLimitState{LastUpdate: time.Now()},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name:     "stale state",
			state:    &RateLimitState{LastUpdate: time.Now().Add(-10 * time.Minute)},
			maxAge:   5 * time.Minute,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRateLimitState_Decisions(t *testing.T) {
	future := time.Now().Add(time.Minute)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name         string
		state        RateLimitState
		wantBlock    bool
		wantThrottle bool
		wantHealthy  bool
	}{
		{
			name:        "healthy",
			state:       RateLimitState{Remaining: 80, ResetAt: future},
			wantHealthy: true,
		},
		{
			name:         "warning band",
			state:        RateLimitState{Remaining: 5, ResetAt: future},
			wantThrottle: true,
		},
		{
			name:      "critical band",
			state:     RateLimitState{Remaining: 1, ResetAt: future},
			wantBlock: true,
		},
		{
			name:  "critical but window elapsed",
			state: RateLimitState{Remaining: 0, ResetAt: past},
		},
		{
			name:      "retry-after active",
			state:     RateLimitState{Remaining: 80, ResetAt: future, BlockedUntil: future},
			wantBlock: true,
		},
		{
			name:        "retry-after elapsed",
			state:       RateLimitState{Remaining: 80, ResetAt: future, BlockedUntil: past},
			wantHealthy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state
			s.UpdateHealth()
			if got := s.NeedsCriticalBlock(); got != tt.wantBlock {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.wantBlock)
			}
			if got := s.NeedsThrottling(); got != tt.wantThrottle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.wantThrottle)
			}
			if s.IsHealthy != tt.wantHealthy {
				t.Errorf("IsHealthy = %v, want %v", s.IsHealthy, tt.wantHealthy)
			}
		})
	}
}

func TestRateLimitState_TimeUntilReset(t *testing.T) {
	now := time.Now()

	s := RateLimitState{ResetAt: now.Add(-time.Second)}
	if got := s.TimeUntilReset(); got != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0", got)
	}

	s = RateLimitState{ResetAt: now.Add(10 * time.Second), BlockedUntil: now.Add(30 * time.Second)}
	got := s.TimeUntilReset()
	if got < 29*time.Second || got > 30*time.Second {
		t.Errorf("TimeUntilReset() = %v, want ~30s (later of reset and block)", got)
	}
}
