// Package metrics provides Prometheus metrics for the Felma triage service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the Felma service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - What really matters for a triage backlog
	itemsCreated       prometheus.Counter
	itemsRated         prometheus.Counter
	escalationsFlagged prometheus.Counter
	stageAdvances      prometheus.Counter
	rankComputeLatency prometheus.Histogram
	itemsByTier        *prometheus.GaugeVec

	// Operational Health Metrics
	totalItems    prometheus.Gauge
	uptimeSeconds prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Business Quality Metrics
	ratingValidationFailures prometheus.Counter
	storeErrors              prometheus.Counter

	// Store Metrics - Persistence performance
	storeWriteLatency prometheus.Histogram
	storeQueryLatency prometheus.Histogram

	// Enhanced Error Metrics - Detailed error tracking
	errorsByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "felma",
		subsystem:        "triage",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics - Focus on what drives the backlog
	m.itemsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_created_total",
		Help:      "Total number of items created",
	})

	m.itemsRated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_rated_total",
		Help:      "Total number of rating submissions that produced a priority rank",
	})

	m.escalationsFlagged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "escalations_flagged_total",
		Help:      "Total number of rated items flagged for leader escalation",
	})

	m.stageAdvances = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_advances_total",
		Help:      "Total number of workflow stage advancements",
	})

	m.rankComputeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rank_compute_latency_milliseconds",
		Help:      "Histogram of priority rank computation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.itemsByTier = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "items_by_tier",
			Help:      "Number of rated items currently in each action tier",
		},
		[]string{"tier"},
	)

	// Operational Health Metrics - System stability indicators
	m.totalItems = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_items",
		Help:      "Total number of items in the store (business scale)",
	})

	m.uptimeSeconds = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "uptime_seconds",
		Help:      "Seconds since the service started",
	})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Business Quality Metrics - Error tracking for business impact
	m.ratingValidationFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_validation_failures_total",
		Help:      "Total number of rating submissions rejected by validation",
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of item store operation errors",
	})

	// Store Metrics - Persistence performance
	m.storeWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Item store write operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Item store query operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Enhanced Error Metrics - Detailed error tracking
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordItemCreated increments the items created counter.
func RecordItemCreated() {
	globalManager.itemsCreated.Inc()
}

// RecordItemRated increments the items rated counter.
func RecordItemRated() {
	globalManager.itemsRated.Inc()
}

// RecordEscalationFlagged increments the escalations counter.
func RecordEscalationFlagged() {
	globalManager.escalationsFlagged.Inc()
}

// RecordStageAdvance increments the stage advancement counter.
func RecordStageAdvance() {
	globalManager.stageAdvances.Inc()
}

// RecordRankComputeLatency records rank computation latency in milliseconds.
func RecordRankComputeLatency(latencyMs float64) {
	globalManager.rankComputeLatency.Observe(latencyMs)
}

// UpdateItemsByTier sets the number of rated items in a tier.
func UpdateItemsByTier(tier string, count int) {
	globalManager.itemsByTier.WithLabelValues(tier).Set(float64(count))
}

// UpdateTotalItems sets the total items count.
func UpdateTotalItems(count int) {
	globalManager.totalItems.Set(float64(count))
}

// UpdateUptime sets the service uptime in seconds.
func UpdateUptime(seconds float64) {
	globalManager.uptimeSeconds.Set(seconds)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRatingValidationFailure increments the validation failures counter.
func RecordRatingValidationFailure() {
	globalManager.ratingValidationFailures.Inc()
}

// RecordStoreError increments the store errors counter.
func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// RecordStoreWriteLatency records store write operation latency.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store query operation latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
