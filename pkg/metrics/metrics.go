// Package metrics defines the Prometheus metric collectors used across the
// discovery service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DiscoveryOpsTotal    *prometheus.CounterVec
	DiscoveryLatency     *prometheus.HistogramVec
	StrategyFailures     *prometheus.CounterVec
	FusionWorkingSet     prometheus.Histogram
	NearbyCandidates     prometheus.Histogram
	IndexRebuildsTotal   *prometheus.CounterVec
	IndexBuildDuration   prometheus.Histogram
	IndexedItems         prometheus.Gauge
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	TrendingFallbacks    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DiscoveryOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_operations_total",
				Help: "Total discovery operations by operation (search, nearby, trending, discover, suggestions, cluster) and result (ok, zero_result, degraded, error).",
			},
			[]string{"operation", "result"},
		),
		DiscoveryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "discovery_latency_seconds",
				Help:    "Discovery operation latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"operation"},
		),
		StrategyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retrieval_strategy_failures_total",
				Help: "Retrieval strategy failures that degraded to empty results, by strategy.",
			},
			[]string{"strategy"},
		),
		FusionWorkingSet: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fusion_working_set_size",
				Help:    "Number of fused candidates per search before pagination.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
		),
		NearbyCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nearby_candidates_count",
				Help:    "Geohash-range candidates per nearby query before the distance filter.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
		),
		IndexRebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_rebuilds_total",
				Help: "Total inverted-index rebuilds by status (ok, degraded, error).",
			},
			[]string{"status"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_build_duration_seconds",
				Help:    "Time spent building a fresh index snapshot.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		IndexedItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "indexed_items",
				Help: "Number of items in the published index snapshot.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of response cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of response cache misses.",
			},
		),
		TrendingFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trending_fallbacks_total",
				Help: "Trending requests that fell back to newest-first listing.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DiscoveryOpsTotal,
		m.DiscoveryLatency,
		m.StrategyFailures,
		m.FusionWorkingSet,
		m.NearbyCandidates,
		m.IndexRebuildsTotal,
		m.IndexBuildDuration,
		m.IndexedItems,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.TrendingFallbacks,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
