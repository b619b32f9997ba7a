package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream pull metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_api_upstream_requests_total",
			Help: "Total number of requests made to the main API",
		},
		[]string{"path", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summary_api_upstream_request_duration_seconds",
			Help:    "Duration of main API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Event stream metrics
	StreamEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_api_stream_events_total",
			Help: "Total number of approved summary events received on the stream",
		},
	)

	StreamParseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_api_stream_parse_errors_total",
			Help: "Total number of malformed stream frames dropped",
		},
	)

	StreamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_api_stream_reconnects_total",
			Help: "Total number of stream reconnect attempts",
		},
	)

	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "summary_api_cache_size",
			Help: "Number of approved summaries currently cached",
		},
	)

	// Read path metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_api_cache_hits_total",
			Help: "Total number of list requests served from the stream cache",
		},
	)

	FallbackFetchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_api_fallback_fetches_total",
			Help: "Total number of list requests served by a pull fetch",
		},
	)
)
