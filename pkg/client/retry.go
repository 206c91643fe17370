package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_retries_total",
		Help: "Synapse API requests retried, by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "synapse_retry_backoff_seconds",
		Help:    "Sleep before a retried Synapse API request",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_retry_exhausted_total",
		Help: "Synapse API requests that failed after the last attempt",
	}, []string{"error_class"})
)

// RetryConfig controls exponential backoff. Client and auth errors are
// never retried whatever MaxAttempts says.
type RetryConfig struct {
	// MaxAttempts counts the first request. 1 disables retries.
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig tries three times starting at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass returns the retry configuration for an error class,
// scaled from base.
func RetryConfigForErrorClass(base RetryConfig, errorClass ErrorClass) RetryConfig {
	cfg := base
	switch errorClass {
	case ErrorClassRateLimit:
		// 429 - longer backoff
		cfg.InitialBackoff = base.InitialBackoff * 4
		cfg.MaxBackoff = base.MaxBackoff * 3
	case ErrorClassNetwork:
		cfg.InitialBackoff = base.InitialBackoff * 2
	}
	return cfg
}

// attemptFunc performs one attempt and reports the class of its failure.
type attemptFunc func() (ErrorClass, error)

// retryWithBackoff executes fn with exponential backoff. The backoff schedule
// follows the class of the most recent failure. Jitter is ±20%.
func retryWithBackoff(ctx context.Context, base RetryConfig, logger zerolog.Logger, fn attemptFunc) error {
	var lastErr error
	var lastClass ErrorClass
	var backoff time.Duration
	maxAttempts := base.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		errClass, err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(lastClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if !shouldRetry(errClass) {
			return lastErr
		}

		config := RetryConfigForErrorClass(base, errClass)
		if errClass != lastClass || backoff == 0 {
			backoff = config.InitialBackoff
		}
		lastClass = errClass

		if attempt >= maxAttempts {
			break
		}

		retriesTotal.WithLabelValues(string(errClass)).Inc()

		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(string(errClass)).Observe(jitter.Seconds())

		logger.Debug().
			Str("error_class", string(errClass)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(errClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	logger.Warn().
		Str("error_class", string(lastClass)).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, lastErr)
}
