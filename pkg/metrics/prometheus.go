// Package metrics provides Prometheus metrics for the bizlens BI service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the bizlens service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  atomic.Int64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Report Metrics - one per analytics operation
	reportsGenerated *prometheus.CounterVec
	reportDegraded   *prometheus.CounterVec
	reportLatency    *prometheus.HistogramVec
	dateParseErrors  prometheus.Counter

	// Upstream Metrics - collaborator calls
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamRecords  *prometheus.GaugeVec
	breakerState     *prometheus.GaugeVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Audit Queue Metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueDropped       prometheus.Counter

	// Worker Metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Repository Metrics - audit snapshot storage
	repositoryRecordsTotal  prometheus.Gauge
	repositorySaveLatency   prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	repositorySnapshotSaved prometheus.Counter

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
		namespace:        "bizlens",
		subsystem:        "bi",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.reportsGenerated = auto.NewCounterVec(
		m.counterOpts("reports_generated_total", "Total number of analytics reports produced by operation"),
		[]string{"operation"},
	)
	m.reportDegraded = auto.NewCounterVec(
		m.counterOpts("report_degraded_sections_total", "Sections returned with defaults because a collaborator failed"),
		[]string{"operation", "section"},
	)
	m.reportLatency = auto.NewHistogramVec(
		m.histogramOpts("report_latency_milliseconds", "End to end report build latency in milliseconds", m.histogramBuckets),
		[]string{"operation"},
	)
	m.dateParseErrors = auto.NewCounter(
		m.counterOpts("date_parse_errors_total", "Records skipped because their timestamp could not be parsed"),
	)

	m.upstreamRequests = auto.NewCounterVec(
		m.counterOpts("upstream_requests_total", "Upstream collaborator calls by service and outcome"),
		[]string{"service", "outcome"},
	)
	m.upstreamLatency = auto.NewHistogramVec(
		m.histogramOpts("upstream_latency_milliseconds", "Upstream collaborator call latency in milliseconds", m.histogramBuckets),
		[]string{"service"},
	)
	m.upstreamRecords = auto.NewGaugeVec(
		m.gaugeOpts("upstream_records", "Number of records returned by the last upstream call"),
		[]string{"service"},
	)
	m.breakerState = auto.NewGaugeVec(
		m.gaugeOpts("circuit_breaker_state", "Circuit breaker state per upstream (0 closed, 1 open, 2 half-open)"),
		[]string{"service"},
	)
	m.cacheHits = auto.NewCounterVec(
		m.counterOpts("upstream_cache_hits_total", "Upstream record list cache hits"),
		[]string{"service"},
	)
	m.cacheMisses = auto.NewCounterVec(
		m.counterOpts("upstream_cache_misses_total", "Upstream record list cache misses"),
		[]string{"service"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds (user experience)", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the audit snapshot queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum audit queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of snapshots enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of snapshots dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue errors"))
	m.queueDropped = auto.NewCounter(m.counterOpts("queue_dropped_total", "Snapshots dropped because the queue was full"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of audit workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of running audit workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets),
	)
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.repositoryRecordsTotal = auto.NewGauge(m.gaugeOpts("repository_records_total", "Audit snapshots currently retained"))
	m.repositorySaveLatency = auto.NewHistogram(
		m.histogramOpts("repository_save_latency_milliseconds", "Snapshot save latency in milliseconds", m.histogramBuckets),
	)
	m.repositoryQueryLatency = auto.NewHistogram(
		m.histogramOpts("repository_query_latency_milliseconds", "Snapshot query latency in milliseconds", m.histogramBuckets),
	)
	m.repositorySnapshotSaved = auto.NewCounter(m.counterOpts("repository_snapshots_saved_total", "Total number of snapshots persisted"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Enabled reports whether the package-level recorders record anything.
func Enabled() bool {
	return globalManager.enabled.Load()
}

// SetEnabled switches the package-level recorders on or off. Metrics stay
// registered; they just stop moving.
func SetEnabled(on bool) {
	globalManager.enabled.Store(on)
}

// RefreshInterval is how often periodically sampled gauges are refreshed.
func RefreshInterval() time.Duration {
	return time.Duration(globalManager.refreshInterval.Load())
}

// SetRefreshInterval changes RefreshInterval. Non-positive values are ignored.
func SetRefreshInterval(d time.Duration) {
	if d > 0 {
		globalManager.refreshInterval.Store(int64(d))
	}
}

// Report Metrics Functions.

// RecordReportGenerated counts a finished report for an operation.
func RecordReportGenerated(operation string) {
	if !Enabled() {
		return
	}
	globalManager.reportsGenerated.WithLabelValues(operation).Inc()
}

// RecordReportDegraded counts a section that fell back to defaults.
func RecordReportDegraded(operation, section string) {
	if !Enabled() {
		return
	}
	globalManager.reportDegraded.WithLabelValues(operation, section).Inc()
}

// RecordReportLatency records report build latency in milliseconds.
func RecordReportLatency(operation string, latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.reportLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordDateParseError counts a skipped record.
func RecordDateParseError() {
	if !Enabled() {
		return
	}
	globalManager.dateParseErrors.Inc()
}

// Upstream Metrics Functions.

// RecordUpstreamRequest counts an upstream call by outcome (ok, error, open, cached).
func RecordUpstreamRequest(service, outcome string) {
	if !Enabled() {
		return
	}
	globalManager.upstreamRequests.WithLabelValues(service, outcome).Inc()
}

// RecordUpstreamLatency records upstream call latency in milliseconds.
func RecordUpstreamLatency(service string, latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.upstreamLatency.WithLabelValues(service).Observe(latencyMs)
}

// UpdateUpstreamRecords sets the record count of the last upstream response.
func UpdateUpstreamRecords(service string, count int) {
	if !Enabled() {
		return
	}
	globalManager.upstreamRecords.WithLabelValues(service).Set(float64(count))
}

// UpdateBreakerState sets the circuit breaker state gauge.
func UpdateBreakerState(service string, state int) {
	if !Enabled() {
		return
	}
	globalManager.breakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCacheHit increments the upstream cache hit counter.
func RecordCacheHit(service string) {
	if !Enabled() {
		return
	}
	globalManager.cacheHits.WithLabelValues(service).Inc()
}

// RecordCacheMiss increments the upstream cache miss counter.
func RecordCacheMiss(service string) {
	if !Enabled() {
		return
	}
	globalManager.cacheMisses.WithLabelValues(service).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !Enabled() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !Enabled() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !Enabled() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !Enabled() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if !Enabled() {
		return
	}
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !Enabled() {
		return
	}
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !Enabled() {
		return
	}
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if !Enabled() {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueDropped increments the dropped snapshot counter.
func RecordQueueDropped() {
	if !Enabled() {
		return
	}
	globalManager.queueDropped.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if !Enabled() {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	if !Enabled() {
		return
	}
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if !Enabled() {
		return
	}
	globalManager.workerErrorRate.Inc()
}

// Repository Metrics Functions.

// UpdateRepositoryRecordsTotal sets the number of retained snapshots.
func UpdateRepositoryRecordsTotal(count int) {
	if !Enabled() {
		return
	}
	globalManager.repositoryRecordsTotal.Set(float64(count))
}

// RecordRepositorySaveLatency records snapshot save latency.
func RecordRepositorySaveLatency(latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.repositorySaveLatency.Observe(latencyMs)
	globalManager.repositorySnapshotSaved.Inc()
}

// RecordRepositoryQueryLatency records snapshot query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !Enabled() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !Enabled() {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !Enabled() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !Enabled() {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !Enabled() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !Enabled() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !Enabled() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
