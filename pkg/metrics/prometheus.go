// Package metrics provides Prometheus metrics for the native tree service and client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exposed by this package.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Identification
	classifications   *prometheus.CounterVec
	classifierLatency prometheus.Histogram
	classifierErrors  prometheus.Counter

	// History
	historyMutations     *prometheus.CounterVec
	historyPersistErrors prometheus.Counter
	historySize          prometheus.Gauge

	// Locations
	locationSaves   *prometheus.CounterVec
	geocodeResults  *prometheus.CounterVec
	locationsListed prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Repository
	repositoryQueryLatency *prometheus.HistogramVec
	repositoryErrors       *prometheus.CounterVec
	treeCount              prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "nativetree",
		subsystem:        "",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.classifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifications_total",
		Help:      "Classification decisions by outcome (identified, unknown, unknown_confident)",
	}, []string{"outcome"})

	m.classifierLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifier_latency_milliseconds",
		Help:      "Round trip latency of the remote image classifier",
		Buckets:   m.histogramBuckets,
	})

	m.classifierErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifier_errors_total",
		Help:      "Classifier calls that failed with a transient network error",
	})

	m.historyMutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_mutations_total",
		Help:      "History store mutations by operation and result",
	}, []string{"op", "result"})

	m.historyPersistErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_persist_errors_total",
		Help:      "Local cache writes that failed; in-memory history stayed authoritative",
	})

	m.historySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_size",
		Help:      "Number of sightings currently held in history",
	})

	m.locationSaves = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "location_saves_total",
		Help:      "Location save attempts by result (saved, duplicate, failed)",
	}, []string{"result"})

	m.geocodeResults = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geocode_results_total",
		Help:      "Reverse geocoding results by outcome (resolved, not_found, error)",
	}, []string{"outcome"})

	m.locationsListed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "location_lists_total",
		Help:      "Location list fetches issued to the backend",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.rateLimited = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the write rate limiter",
	}, []string{"endpoint"})

	m.repositoryQueryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_query_latency_milliseconds",
		Help:      "Relational store latency by operation",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.repositoryErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_errors_total",
		Help:      "Relational store failures by operation",
	}, []string{"op"})

	m.treeCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trees",
		Help:      "Number of tree species known to the backend",
	})
}

// RecordClassification counts a sighting decision.
func RecordClassification(outcome string) {
	globalManager.classifications.WithLabelValues(outcome).Inc()
}

// RecordClassifierLatency records a classifier round trip in milliseconds.
func RecordClassifierLatency(latencyMs float64) {
	globalManager.classifierLatency.Observe(latencyMs)
}

// RecordClassifierError counts a failed classifier call.
func RecordClassifierError() {
	globalManager.classifierErrors.Inc()
}

// RecordHistoryMutation counts a history add/remove/clear.
func RecordHistoryMutation(op, result string) {
	globalManager.historyMutations.WithLabelValues(op, result).Inc()
}

// RecordHistoryPersistError counts a failed local cache write.
func RecordHistoryPersistError() {
	globalManager.historyPersistErrors.Inc()
}

// UpdateHistorySize sets the current history length.
func UpdateHistorySize(n int) {
	globalManager.historySize.Set(float64(n))
}

// RecordLocationSave counts a location save attempt.
func RecordLocationSave(result string) {
	globalManager.locationSaves.WithLabelValues(result).Inc()
}

// RecordGeocode counts a reverse geocoding outcome.
func RecordGeocode(outcome string) {
	globalManager.geocodeResults.WithLabelValues(outcome).Inc()
}

// RecordLocationsListed counts a location list fetch.
func RecordLocationsListed() {
	globalManager.locationsListed.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordRepositoryLatency records relational store latency for op.
func RecordRepositoryLatency(op string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordRepositoryError counts a relational store failure for op.
func RecordRepositoryError(op string) {
	globalManager.repositoryErrors.WithLabelValues(op).Inc()
}

// UpdateTreeCount sets the number of known species.
func UpdateTreeCount(n int) {
	globalManager.treeCount.Set(float64(n))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
