package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_aggregation_duration_seconds",
			Help:    "End-to-end federated search duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"signed_in"},
	)

	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests",
		},
		[]string{"outcome"},
	)

	SourceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_source_requests_total",
			Help: "Total number of per-source reads",
		},
		[]string{"source", "status"},
	)

	SourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_source_duration_seconds",
			Help:    "Per-source read and match duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"source"},
	)

	SourceHits = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_source_hits",
			Help:    "Hits produced per source read after matching and capping",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 25, 50},
		},
		[]string{"source"},
	)

	ResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_results_returned",
			Help:    "Hits returned per search after merge and cap",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 20},
		},
	)

	DuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_duplicates_dropped_total",
			Help: "Hits dropped by (id, type) de-duplication",
		},
	)

	StaleResponsesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_stale_responses_discarded_total",
			Help: "Aggregation results discarded because a newer query was issued",
		},
	)

	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_catalog_reloads_total",
			Help: "Seed catalog reload attempts",
		},
		[]string{"status"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_cache_hits_total",
			Help: "Total number of Redis cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_cache_misses_total",
			Help: "Total number of Redis cache misses",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	SlowQueryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slow_query_total",
			Help: "Total number of slow aggregations",
		},
		[]string{"severity"},
	)
)
