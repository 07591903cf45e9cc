// Package metrics provides Prometheus metrics for the podium data service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Cache and load
	cacheLoads      *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheClears     prometheus.Counter
	loadDuration    prometheus.Histogram
	recordsLoaded   prometheus.Gauge
	rowsDropped     prometheus.Counter
	lastLoadSeconds prometheus.Gauge

	// Views
	viewRequests *prometheus.CounterVec
	viewDuration *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager with opts on a fresh registry that
// GetRegistry then returns. Call it at startup, before metrics are recorded
// or served.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "etl",
		histogramBuckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cacheLoads = auto.NewCounterVec(
		m.counterOpts("cache_loads_total", "Source loads attempted by the record cache, by result"),
		[]string{"result"},
	)
	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Cache reads served without touching the source"))
	m.cacheClears = auto.NewCounter(m.counterOpts("cache_clears_total", "Manual cache invalidations"))
	m.loadDuration = auto.NewHistogram(m.histogramOpts("load_duration_milliseconds", "Time to fetch and normalize the source dataset"))
	m.recordsLoaded = auto.NewGauge(m.gaugeOpts("records_loaded", "Normalized records held by the cache"))
	m.rowsDropped = auto.NewCounter(m.counterOpts("rows_dropped_total", "Source rows rejected during normalization"))
	m.lastLoadSeconds = auto.NewGauge(m.gaugeOpts("last_load_timestamp_seconds", "Unix time of the last successful load"))

	m.viewRequests = auto.NewCounterVec(
		m.counterOpts("view_requests_total", "Derived view computations, by view"),
		[]string{"view"},
	)
	m.viewDuration = auto.NewHistogramVec(
		m.histogramOpts("view_duration_milliseconds", "Time to compute a derived view"),
		[]string{"view"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP responses with status >= 400, by endpoint and error type"),
		[]string{"endpoint", "error_type"},
	)
}

// RecordCacheLoad counts a source load with result "success" or "error".
func RecordCacheLoad(result string) {
	globalManager.cacheLoads.WithLabelValues(result).Inc()
}

// RecordCacheHit counts a read served from the populated cache.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheClear counts a manual invalidation.
func RecordCacheClear() {
	globalManager.cacheClears.Inc()
}

// RecordLoadDuration observes how long a source load took.
func RecordLoadDuration(durationMs float64) {
	globalManager.loadDuration.Observe(durationMs)
}

// UpdateRecordsLoaded sets the number of cached records.
func UpdateRecordsLoaded(count int) {
	globalManager.recordsLoaded.Set(float64(count))
}

// RecordRowsDropped adds rows rejected by normalization.
func RecordRowsDropped(count int) {
	if count > 0 {
		globalManager.rowsDropped.Add(float64(count))
	}
}

// UpdateLastLoadTimestamp sets the last successful load time.
func UpdateLastLoadTimestamp(unixSeconds float64) {
	globalManager.lastLoadSeconds.Set(unixSeconds)
}

// RecordView counts one computation of a derived view and its duration.
func RecordView(view string, durationMs float64) {
	globalManager.viewRequests.WithLabelValues(view).Inc()
	globalManager.viewDuration.WithLabelValues(view).Observe(durationMs)
}

// RecordHTTPRequest counts a request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes a request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
