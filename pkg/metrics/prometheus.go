// Package metrics provides Prometheus metrics for the cartola analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Upstream fetch
	upstreamRequests     *prometheus.CounterVec
	upstreamRetries      *prometheus.CounterVec
	upstreamLatency      *prometheus.HistogramVec
	upstreamBreakerState *prometheus.GaugeVec

	// Payload cache
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Derivation cycles
	cyclesTotal      *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	athletesBuilt    prometheus.Gauge
	athletesSkipped  prometheus.Gauge
	marketOpen       prometheus.Gauge
	lastCycleUnix    prometheus.Gauge
	valorizationRuns prometheus.Counter

	// Notification outbox
	notifications       *prometheus.CounterVec
	notificationBacklog prometheus.Gauge
	deliveryLatency     prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cartola",
		subsystem:        "analytics",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
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

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_requests_total",
		Help:      "Upstream API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	m.upstreamRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_retries_total",
		Help:      "Upstream request retries by endpoint",
	}, []string{"endpoint"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_latency_milliseconds",
		Help:      "Upstream request latency including retries",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})

	m.upstreamBreakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_breaker_state",
		Help:      "Circuit breaker state per endpoint (0 closed, 1 half-open, 2 open)",
	}, []string{"endpoint"})

	m.cacheHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "payload_cache_hits_total",
		Help:      "Raw payload cache hits by backend",
	}, []string{"backend"})

	m.cacheMisses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "payload_cache_misses_total",
		Help:      "Raw payload cache misses by backend",
	}, []string{"backend"})

	m.cyclesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycles_total",
		Help:      "Derivation cycles by outcome",
	}, []string{"outcome"})

	m.cycleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycle_duration_milliseconds",
		Help:      "Time spent deriving a snapshot from a raw payload",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250},
	})

	m.athletesBuilt = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "athletes_built",
		Help:      "Athletes in the current snapshot",
	})

	m.athletesSkipped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "athletes_skipped",
		Help:      "Athletes dropped from the current snapshot for unresolved references",
	})

	m.marketOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "market_open",
		Help:      "1 when the market is open",
	})

	m.lastCycleUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_cycle_unix_seconds",
		Help:      "Unix time of the last successful derivation cycle",
	})

	m.valorizationRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "valorization_estimates_total",
		Help:      "Sampled valorization estimates computed",
	})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_total",
		Help:      "Market notifications by outcome (queued, dropped, delivered, failed)",
	}, []string{"outcome"})

	m.notificationBacklog = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_backlog",
		Help:      "Notifications waiting in the outbox",
	})

	m.deliveryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_delivery_milliseconds",
		Help:      "Time to deliver one notification including retries",
		Buckets:   m.histogramBuckets,
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
		Help:      "HTTP request duration",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint and type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by internal component",
	}, []string{"component", "error_type"})

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

// RecordUpstreamRequest counts one upstream call; outcome is ok, error or rejected.
func RecordUpstreamRequest(endpoint, outcome string) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordUpstreamRetry counts a retried upstream attempt.
func RecordUpstreamRetry(endpoint string) {
	globalManager.upstreamRetries.WithLabelValues(endpoint).Inc()
}

// RecordUpstreamLatency records upstream latency in milliseconds.
func RecordUpstreamLatency(endpoint string, latencyMs float64) {
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// UpdateBreakerState publishes the breaker state for an endpoint.
func UpdateBreakerState(endpoint string, state int) {
	globalManager.upstreamBreakerState.WithLabelValues(endpoint).Set(float64(state))
}

// RecordCacheHit counts a payload cache hit.
func RecordCacheHit(backend string) {
	globalManager.cacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss counts a payload cache miss.
func RecordCacheMiss(backend string) {
	globalManager.cacheMisses.WithLabelValues(backend).Inc()
}

// RecordCycle counts a derivation cycle by outcome (ok, unavailable).
func RecordCycle(outcome string) {
	globalManager.cyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordCycleDuration records derivation time in milliseconds.
func RecordCycleDuration(latencyMs float64) {
	globalManager.cycleDuration.Observe(latencyMs)
}

// UpdateSnapshot publishes the size of the current snapshot.
func UpdateSnapshot(built, skipped int, marketOpen bool, unix int64) {
	globalManager.athletesBuilt.Set(float64(built))
	globalManager.athletesSkipped.Set(float64(skipped))
	if marketOpen {
		globalManager.marketOpen.Set(1)
	} else {
		globalManager.marketOpen.Set(0)
	}
	globalManager.lastCycleUnix.Set(float64(unix))
}

// RecordValorizationEstimate counts one sampled valorization estimate.
func RecordValorizationEstimate() {
	globalManager.valorizationRuns.Inc()
}

// RecordNotification counts a notification by outcome.
func RecordNotification(outcome string) {
	globalManager.notifications.WithLabelValues(outcome).Inc()
}

// UpdateNotificationBacklog sets the outbox length.
func UpdateNotificationBacklog(n int) {
	globalManager.notificationBacklog.Set(float64(n))
}

// RecordNotificationDelivery records delivery time in milliseconds.
func RecordNotificationDelivery(latencyMs float64) {
	globalManager.deliveryLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an HTTP error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error raised inside a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the current memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
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
