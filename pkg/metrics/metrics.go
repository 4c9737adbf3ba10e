// Package metrics defines the Prometheus collectors used by the loader, the
// read API, the cache and the exporters, and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	RecordsLoadedTotal *prometheus.CounterVec
	LoadWarningsTotal  *prometheus.CounterVec
	LoadPhaseDuration  *prometheus.HistogramVec
	IndexBuildDuration *prometheus.HistogramVec
	StoreRecords       *prometheus.GaugeVec

	QueriesTotal *prometheus.CounterVec
	QueryLatency *prometheus.HistogramVec

	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec

	ExportedRecordsTotal *prometheus.CounterVec
	ExportBatchesTotal   *prometheus.CounterVec
}

// New creates the collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates the collectors and registers them with reg. Tests
// pass a fresh prometheus.NewRegistry() so that repeated construction does
// not panic.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
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
		RecordsLoadedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mmdb_records_loaded_total",
				Help: "Records accepted by the loader by kind (publication, person, redirect).",
			},
			[]string{"kind"},
		),
		LoadWarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mmdb_load_warnings_total",
				Help: "Integrity warnings raised while loading, by category.",
			},
			[]string{"category"},
		),
		LoadPhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mmdb_load_phase_duration_seconds",
				Help:    "Duration of the load phases (parse, link).",
				Buckets: []float64{0.01, 0.1, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"phase"},
		),
		IndexBuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mmdb_index_build_duration_seconds",
				Help:    "Duration of lazy index builds.",
				Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 15, 60, 300},
			},
			[]string{"index"},
		),
		StoreRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mmdb_store_records",
				Help: "Number of entities held by the loaded store, by kind.",
			},
			[]string{"kind"},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mmdb_queries_total",
				Help: "Read API queries by query and result (ok, not_found, error).",
			},
			[]string{"query", "result"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mmdb_query_latency_seconds",
				Help:    "Read API query latency in seconds.",
				Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"query"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		ExportedRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mmdb_exported_records_total",
				Help: "Records written by the exporters, by sink and kind.",
			},
			[]string{"sink", "kind"},
		),
		ExportBatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mmdb_export_batches_total",
				Help: "Export batches by sink and status.",
			},
			[]string{"sink", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RecordsLoadedTotal,
		m.LoadWarningsTotal,
		m.LoadPhaseDuration,
		m.IndexBuildDuration,
		m.StoreRecords,
		m.QueriesTotal,
		m.QueryLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CircuitBreakerState,
		m.ExportedRecordsTotal,
		m.ExportBatchesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
