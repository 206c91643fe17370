package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newMemoryTracker() *Tracker {
	tracker := NewTracker(nil, zerolog.Nop())
	tracker.ThrottleDelay = 10 * time.Millisecond
	return tracker
}

func TestTracker_DefaultState(t *testing.T) {
	tracker := newMemoryTracker()

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if !state.IsHealthy {
		t.Error("default state should be healthy")
	}

	allowed, err := tracker.ShouldAllowRequest(context.Background())
	if err != nil || !allowed {
		t.Errorf("ShouldAllowRequest() = %v, %v; want true, nil", allowed, err)
	}
}

func TestTracker_UpdateFromHeaders(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		headers       map[string]string
		wantErr       bool
		wantRemaining int
		wantAllowed   bool
	}{
		{
			name:          "no headers keeps default",
			status:        http.StatusOK,
			headers:       map[string]string{},
			wantRemaining: 100,
			wantAllowed:   true,
		},
		{
			name:   "healthy budget",
			status: http.StatusOK,
			headers: map[string]string{
				"X-RateLimit-Remaining": "60",
				"X-RateLimit-Reset":     "30",
			},
			wantRemaining: 60,
			wantAllowed:   true,
		},
		{
			name:   "warning budget throttles but allows",
			status: http.StatusOK,
			headers: map[string]string{
				"X-RateLimit-Remaining": "5",
				"X-RateLimit-Reset":     "30",
			},
			wantRemaining: 5,
			wantAllowed:   true,
		},
		{
			name:   "critical budget blocks",
			status: http.StatusOK,
			headers: map[string]string{
				"X-RateLimit-Remaining": "1",
				"X-RateLimit-Reset":     "30",
			},
			wantRemaining: 1,
			wantAllowed:   false,
		},
		{
			name:   "429 with retry-after blocks",
			status: http.StatusTooManyRequests,
			headers: map[string]string{
				"Retry-After": "120",
			},
			wantRemaining: 100,
			wantAllowed:   false,
		},
		{
			name:   "invalid remaining",
			status: http.StatusOK,
			headers: map[string]string{
				"X-RateLimit-Remaining": "lots",
			},
			wantErr: true,
		},
		{
			name:   "invalid reset",
			status: http.StatusOK,
			headers: map[string]string{
				"X-RateLimit-Remaining": "10",
				"X-RateLimit-Reset":     "soon",
			},
			wantErr: true,
		},
		{
			name:   "invalid retry-after",
			status: http.StatusTooManyRequests,
			headers: map[string]string{
				"Retry-After": "tomorrow-ish",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newMemoryTracker()
			ctx := context.Background()

			headers := http.Header{}
			for k, v := range tt.headers {
				headers.Set(k, v)
			}

			err := tracker.UpdateFromHeaders(ctx, tt.status, headers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UpdateFromHeaders() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			state, err := tracker.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState failed: %v", err)
			}
			if state.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.wantRemaining)
			}

			allowed, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest failed: %v", err)
			}
			if allowed != tt.wantAllowed {
				t.Errorf("allowed = %v, want %v", allowed, tt.wantAllowed)
			}
		})
	}
}

func TestTracker_ThrottleRespectsContext(t *testing.T) {
	tracker := newMemoryTracker()
	tracker.ThrottleDelay = time.Hour

	headers := http.Header{}
	headers.Set("X-RateLimit-Remaining", "5")
	headers.Set("X-RateLimit-Reset", "60")
	if err := tracker.UpdateFromHeaders(context.Background(), http.StatusOK, headers); err != nil {
		t.Fatalf("UpdateFromHeaders failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if allowed || err == nil {
		t.Errorf("ShouldAllowRequest() = %v, %v; want false and a context error", allowed, err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Now()

	if d, err := parseRetryAfter("30", now); err != nil || d != 30*time.Second {
		t.Errorf("parseRetryAfter(30) = %v, %v", d, err)
	}
	if d, err := parseRetryAfter("-5", now); err != nil || d != 0 {
		t.Errorf("parseRetryAfter(-5) = %v, %v", d, err)
	}

	date := now.Add(90 * time.Second).UTC().Format(http.TimeFormat)
	d, err := parseRetryAfter(date, now)
	if err != nil {
		t.Fatalf("parseRetryAfter(date) failed: %v", err)
	}
	if d < 85*time.Second || d > 91*time.Second {
		t.Errorf("parseRetryAfter(date) = %v, want ~90s", d)
	}

	if _, err := parseRetryAfter("nope", now); err == nil {
		t.Error("expected error for invalid value")
	}
}

func TestTracker_RedisState(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	client.Del(ctx, RedisKeyState)
	t.Cleanup(func() {
		client.Del(context.Background(), RedisKeyState)
		client.Close()
	})

	writer := NewTracker(client, zerolog.Nop())
	headers := http.Header{}
	headers.Set("X-RateLimit-Remaining", "1")
	headers.Set("X-RateLimit-Reset", "60")
	if err := writer.UpdateFromHeaders(ctx, http.StatusOK, headers); err != nil {
		t.Fatalf("UpdateFromHeaders failed: %v", err)
	}

	// A second tracker sees the shared state.
	reader := NewTracker(client, zerolog.Nop())
	allowed, err := reader.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if allowed {
		t.Error("shared critical state should block")
	}

	ttl, err := client.TTL(ctx, RedisKeyState).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Minute+time.Second {
		t.Errorf("TTL = %v, want (0, 2m]", ttl)
	}
}
