// Package metrics provides Prometheus metrics for the gameday grid service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the gameday service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Grid actions
	actionsApplied   *prometheus.CounterVec
	actionsNoop      *prometheus.CounterVec
	actionsDuplicate prometheus.Counter
	actionsRejected  *prometheus.CounterVec
	actionLatency    prometheus.Histogram

	// Queue and dispatcher
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    prometheus.Counter
	dispatcherErrors prometheus.Counter
	commandsSkipped  prometheus.Counter

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsDeleted prometheus.Counter
	sessionsExpired prometheus.Counter

	// Catalog
	catalogWebcasts     prometheus.Gauge
	catalogRebuilds     prometheus.Counter
	catalogFailures     prometheus.Counter
	catalogPrunedSlots  prometheus.Counter
	catalogBuildLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry, which GetRegistry returns from then on. Call it once at startup,
// before metrics are recorded or served.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	globalManager = NewManager(opts...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gameday",
		subsystem:        "grid",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		refreshInterval:  defaultRefreshInterval,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.actionsApplied = m.counterVec("actions_applied_total",
		"Grid actions that changed a session state", "type")
	m.actionsNoop = m.counterVec("actions_noop_total",
		"Grid actions that left a session state unchanged", "type")
	m.actionsDuplicate = m.counter("actions_duplicate_total",
		"Actions dropped because their action id was already seen")
	m.actionsRejected = m.counterVec("actions_rejected_total",
		"Actions rejected before dispatch", "reason")
	m.actionLatency = m.histogram("action_latency_milliseconds",
		"Time from dispatch to reply for grid actions", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Commands waiting for the dispatcher")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum commands the queue holds")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Commands accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Commands taken by the dispatcher")
	m.queueRejected = m.counter("queue_rejected_total", "Commands refused because the queue was full or closed")
	m.dispatcherErrors = m.counter("dispatcher_errors_total", "Commands that failed inside the dispatcher")
	m.commandsSkipped = m.counter("dispatcher_skipped_total", "Commands skipped because their caller gave up")

	m.sessionsActive = m.gauge("sessions_active", "Sessions currently held in memory")
	m.sessionsCreated = m.counter("sessions_created_total", "Sessions created")
	m.sessionsDeleted = m.counter("sessions_deleted_total", "Sessions deleted by clients")
	m.sessionsExpired = m.counter("sessions_expired_total", "Sessions removed after their idle TTL")

	m.catalogWebcasts = m.gauge("catalog_webcasts", "Webcasts in the current catalog")
	m.catalogRebuilds = m.counter("catalog_rebuilds_total", "Successful catalog rebuilds")
	m.catalogFailures = m.counter("catalog_failures_total", "Rejected catalog feeds")
	m.catalogPrunedSlots = m.counter("catalog_pruned_slots_total",
		"Slots cleared because their webcast left the catalog")
	m.catalogBuildLatency = m.histogram("catalog_build_latency_milliseconds",
		"Time to build a catalog from a feed", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRateLimited = m.counter("http_rate_limited_total", "Requests refused by the rate limiter")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Grid action metrics.

// RecordActionApplied counts an action that changed state.
func RecordActionApplied(actionType string) {
	globalManager.actionsApplied.WithLabelValues(actionType).Inc()
}

// RecordActionNoop counts an action that left state unchanged.
func RecordActionNoop(actionType string) {
	globalManager.actionsNoop.WithLabelValues(actionType).Inc()
}

// RecordActionDuplicate counts an action dropped by deduplication.
func RecordActionDuplicate() {
	globalManager.actionsDuplicate.Inc()
}

// RecordActionRejected counts an action refused before dispatch.
func RecordActionRejected(reason string) {
	globalManager.actionsRejected.WithLabelValues(reason).Inc()
}

// RecordActionLatency records dispatch-to-reply latency in milliseconds.
func RecordActionLatency(latencyMs float64) {
	globalManager.actionLatency.Observe(latencyMs)
}

// Queue metrics.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an accepted command.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a command taken by the dispatcher.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueReject counts a command the queue refused.
func RecordQueueReject() {
	globalManager.queueRejected.Inc()
}

// RecordDispatcherError counts a failed command.
func RecordDispatcherError() {
	globalManager.dispatcherErrors.Inc()
}

// RecordCommandSkipped counts a command whose caller already gave up.
func RecordCommandSkipped() {
	globalManager.commandsSkipped.Inc()
}

// Session metrics.

// UpdateSessionsActive sets the number of live sessions.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionDeleted counts a client-deleted session.
func RecordSessionDeleted() {
	globalManager.sessionsDeleted.Inc()
}

// RecordSessionsExpired adds n expired sessions.
func RecordSessionsExpired(n int) {
	globalManager.sessionsExpired.Add(float64(n))
}

// Catalog metrics.

// UpdateCatalogWebcasts sets the catalog size.
func UpdateCatalogWebcasts(count int) {
	globalManager.catalogWebcasts.Set(float64(count))
}

// RecordCatalogRebuild counts a successful rebuild.
func RecordCatalogRebuild() {
	globalManager.catalogRebuilds.Inc()
}

// RecordCatalogFailure counts a rejected feed.
func RecordCatalogFailure() {
	globalManager.catalogFailures.Inc()
}

// RecordCatalogPrunedSlots adds n slots cleared by a prune.
func RecordCatalogPrunedSlots(n int) {
	globalManager.catalogPrunedSlots.Add(float64(n))
}

// RecordCatalogBuildLatency records catalog build time in milliseconds.
func RecordCatalogBuildLatency(latencyMs float64) {
	globalManager.catalogBuildLatency.Observe(latencyMs)
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPRateLimited counts a request refused by the limiter.
func RecordHTTPRateLimited() {
	globalManager.httpRateLimited.Inc()
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the heap memory in use.
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

// CollectSystemMetrics samples runtime statistics once.
func CollectSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapInuse)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		RecordSystemGCPauseTime(float64(last) / float64(time.Millisecond))
	}
}

// RunSystemCollector samples runtime statistics every refresh interval
// until ctx is done.
func RunSystemCollector(ctx context.Context) {
	ticker := time.NewTicker(globalManager.refreshInterval)
	defer ticker.Stop()
	CollectSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CollectSystemMetrics()
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
