// Package metrics exposes the Synapse client's Prometheus metrics.
// The metrics themselves are defined in their packages (client, cache,
// ratelimit, feed, pagination, session) via promauto.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the registerer all Synapse metrics are added to.
var Registry = prometheus.DefaultRegisterer

// Path is where Handler is mounted by Serve.
const Path = "/metrics"

// Handler returns the HTTP handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes metrics on addr until ctx is done, then shuts down.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return serve(ctx, ln)
}

func serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(Path, Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger := log.With().Str("component", "metrics").Logger()
	logger.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	<-errCh
	logger.Info().Msg("Metrics server stopped")
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - synapse_requests_total{endpoint, status} (Counter)
//   - synapse_request_duration_seconds{endpoint} (Histogram)
//   - synapse_errors_total{class} (Counter): client, server, rate_limit, network
//   - synapse_circuit_breaker_state (Gauge): 0 closed, 1 half-open, 2 open
//   - synapse_retries_total{error_class} (Counter)
//   - synapse_retry_backoff_seconds{error_class} (Histogram)
//   - synapse_retry_exhausted_total{error_class} (Counter)
//
// Cache Metrics (pkg/cache):
//   - synapse_cache_hits_total{layer} (Counter)
//   - synapse_cache_misses_total (Counter)
//   - synapse_cache_written_bytes_total (Counter)
//   - synapse_cache_conditional_requests_total (Counter)
//   - synapse_304_responses_total (Counter)
//   - synapse_cache_errors_total{operation} (Counter)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - synapse_rate_limit_remaining (Gauge)
//   - synapse_rate_limit_blocks_total (Counter)
//   - synapse_rate_limit_throttles_total (Counter)
//
// Feed Metrics (pkg/feed, pkg/pagination):
//   - synapse_feed_page_loads_total{result} (Counter): more, exhausted, empty, error, stale
//   - synapse_feed_page_loads_skipped_total (Counter)
//   - synapse_feed_page_fetch_duration_seconds (Histogram)
//   - synapse_batch_pages_fetched_total{mode} (Counter)
//   - synapse_batch_fetch_duration_seconds (Histogram)
//
// Session Metrics (pkg/session):
//   - synapse_session_auth_checks_total{result} (Counter)
//   - synapse_session_authenticated (Gauge)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(synapse_cache_hits_total[5m])) /
//   (sum(rate(synapse_cache_hits_total[5m])) + sum(rate(synapse_cache_misses_total[5m])))
//
//   # Stale page discards
//   rate(synapse_feed_page_loads_total{result="stale"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(synapse_request_duration_seconds_bucket[5m]))
