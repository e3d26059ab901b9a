// Package metrics provides Prometheus metrics for the Grafixr portfolio service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Catalog
	itemsTotal      prometheus.Gauge
	categoriesTotal prometheus.Gauge
	inquiriesTotal  prometheus.Gauge

	// Uploads
	uploads       *prometheus.CounterVec
	uploadBytes   prometheus.Counter
	uploadErrors  *prometheus.CounterVec
	itemDeletions prometheus.Counter
	inquiries     prometheus.Counter
	rateLimited   *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	pageRenders         *prometheus.CounterVec

	// Media cleanup queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    *prometheus.CounterVec

	// Media cleanup workers
	workerCount             prometheus.Gauge
	mediaDeleted            prometheus.Counter
	mediaRetained           prometheus.Counter
	mediaDeleteRetries      prometheus.Counter
	workerErrors            prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

// latencyBuckets covers request and job latencies in milliseconds.
var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // bucket table

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(
		WithNamespace("grafixr"),
		WithSubsystem("site"),
		WithHistogramBuckets(latencyBuckets),
		WithPrometheusRegistry(customRegistry),
	)
}

// NewManager creates a new metrics manager. Collectors are registered on the
// configured registry, prometheus.DefaultRegisterer unless overridden.
// Names carry no prefix unless a namespace or subsystem is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.itemsTotal = m.gauge("portfolio_items", "Number of portfolio items in the catalog")
	m.categoriesTotal = m.gauge("categories", "Number of categories in the catalog")
	m.inquiriesTotal = m.gauge("inquiries", "Number of stored contact inquiries")

	m.uploads = m.counterVec("uploads_total", "Portfolio items uploaded by media type", "media_type")
	m.uploadBytes = m.counter("upload_bytes_total", "Bytes of media written to the media store")
	m.uploadErrors = m.counterVec("upload_errors_total", "Rejected or failed uploads by reason", "reason")
	m.itemDeletions = m.counter("item_deletions_total", "Portfolio items deleted")
	m.inquiries = m.counter("inquiries_submitted_total", "Contact inquiries accepted")
	m.rateLimited = m.counterVec("rate_limited_total", "Requests rejected by a rate limiter", "limiter")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.pageRenders = m.counterVec("page_renders_total", "Rendered site pages by template and outcome", "page", "outcome")

	m.queueSize = m.gauge("media_queue_size", "Current number of queued media cleanup jobs")
	m.queueCapacity = m.gauge("media_queue_capacity", "Maximum media cleanup queue capacity")
	m.queueUtilization = m.gauge("media_queue_utilization_ratio", "Queue utilization ratio (size / capacity)")
	m.queueEnqueued = m.counter("media_queue_enqueued_total", "Media cleanup jobs enqueued")
	m.queueDequeued = m.counter("media_queue_dequeued_total", "Media cleanup jobs dequeued")
	m.queueRejected = m.counterVec("media_queue_rejected_total", "Media cleanup jobs rejected by reason", "reason")

	m.workerCount = m.gauge("media_worker_count", "Number of media cleanup workers")
	m.mediaDeleted = m.counter("media_deleted_total", "Media objects deleted")
	m.mediaRetained = m.counter("media_retained_total", "Media objects kept because another item still references them")
	m.mediaDeleteRetries = m.counter("media_delete_retries_total", "Media delete retries")
	m.workerErrors = m.counter("media_worker_errors_total", "Media cleanup jobs that gave up on at least one key")
	m.workerProcessingLatency = m.histogram("media_job_latency_milliseconds", "Media cleanup job latency in milliseconds", m.histogramBuckets)

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Catalog gauges.

// UpdateItemsTotal sets the number of portfolio items.
func UpdateItemsTotal(count int) { globalManager.itemsTotal.Set(float64(count)) }

// UpdateCategoriesTotal sets the number of categories.
func UpdateCategoriesTotal(count int) { globalManager.categoriesTotal.Set(float64(count)) }

// UpdateInquiriesTotal sets the number of stored inquiries.
func UpdateInquiriesTotal(count int) { globalManager.inquiriesTotal.Set(float64(count)) }

// Upload and catalog events.

// RecordUpload counts a stored portfolio item.
func RecordUpload(mediaType string) { globalManager.uploads.WithLabelValues(mediaType).Inc() }

// RecordUploadBytes adds to the bytes written to the media store.
func RecordUploadBytes(n int64) {
	if n > 0 {
		globalManager.uploadBytes.Add(float64(n))
	}
}

// RecordUploadError counts a rejected or failed upload.
func RecordUploadError(reason string) { globalManager.uploadErrors.WithLabelValues(reason).Inc() }

// RecordItemDeleted counts a deleted portfolio item.
func RecordItemDeleted() { globalManager.itemDeletions.Inc() }

// RecordInquiry counts an accepted contact inquiry.
func RecordInquiry() { globalManager.inquiries.Inc() }

// RecordRateLimited counts a request denied by the named limiter.
func RecordRateLimited(limiter string) { globalManager.rateLimited.WithLabelValues(limiter).Inc() }

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordPageRender counts a rendered page; outcome is "ok" or "error".
func RecordPageRender(page, outcome string) {
	globalManager.pageRenders.WithLabelValues(page, outcome).Inc()
}

// Media cleanup queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueRejected counts a job the queue refused.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// Media cleanup workers.

// UpdateWorkerCount sets the number of media cleanup workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordMediaDeleted counts a deleted media object.
func RecordMediaDeleted() { globalManager.mediaDeleted.Inc() }

// RecordMediaRetained counts a media object kept because it is still referenced.
func RecordMediaRetained() { globalManager.mediaRetained.Inc() }

// RecordMediaDeleteRetry counts a retried delete.
func RecordMediaDeleteRetry() { globalManager.mediaDeleteRetries.Inc() }

// RecordWorkerError counts a job that gave up on at least one key.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordWorkerProcessingLatency records job latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
