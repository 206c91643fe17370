package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pageLoadsTotal counts load attempts by outcome
	pageLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synapse_feed_page_loads_total",
			Help: "Total feed page loads by result",
		},
		[]string{"result"}, // "more", "exhausted", "empty", "error", "stale"
	)

	pageLoadsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synapse_feed_page_loads_skipped_total",
			Help: "Total load requests ignored because a fetch was in flight or the feed was exhausted",
		},
	)

	pageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "synapse_feed_page_fetch_duration_seconds",
			Help:    "Duration of feed page fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)
)
