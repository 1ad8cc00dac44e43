// Package metrics provides Prometheus metrics for the arcade solving service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns one set of Prometheus collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Solve metrics
	solves            *prometheus.CounterVec
	solveDuration     *prometheus.HistogramVec
	solveObjective    *prometheus.GaugeVec
	comparisonImprove *prometheus.HistogramVec
	solverNodes       prometheus.Histogram

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    *prometheus.CounterVec
	queueWait        prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	jobsSkipped             prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton behind the package-level helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "arcade",
		subsystem:        "solver",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.solves = auto.NewCounterVec(m.counterOpts("solves_total", "Solves by engine, algorithm and outcome"),
		[]string{"engine", "algorithm", "status"})
	m.solveDuration = auto.NewHistogramVec(m.histogramOpts("solve_duration_milliseconds", "Solve wall time in milliseconds", m.histogramBuckets),
		[]string{"engine", "algorithm"})
	m.solveObjective = auto.NewGaugeVec(m.gaugeOpts("solve_objective", "Objective of the most recent successful solve"),
		[]string{"engine", "algorithm"})
	m.comparisonImprove = auto.NewHistogramVec(m.histogramOpts("comparison_improvement_pct", "Relative improvement of the primary algorithm in comparisons",
		[]float64{-50, -10, -5, -1, 0, 1, 5, 10, 25, 50, 100}),
		[]string{"engine"})
	m.solverNodes = auto.NewHistogram(m.histogramOpts("ilp_nodes", "Branch and bound nodes explored per ILP solve",
		prometheus.ExponentialBuckets(1, 4, 10)))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Jobs waiting in the solve queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum solve queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (size / capacity)"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Jobs accepted by the queue"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Jobs handed to workers"))
	m.queueRejected = auto.NewCounterVec(m.counterOpts("queue_rejected_total", "Jobs refused by the queue"),
		[]string{"reason"})
	m.queueWait = auto.NewHistogram(m.histogramOpts("queue_wait_milliseconds", "Time jobs spent queued before a worker picked them", m.histogramBuckets))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured solve workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Workers currently running a job"))
	m.workerIdleCount = auto.NewGauge(m.gaugeOpts("worker_idle_count", "Workers waiting for a job"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Job run time inside a worker", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Jobs that returned an error"))
	m.jobsSkipped = auto.NewCounter(m.counterOpts("jobs_skipped_total", "Jobs dropped because their caller gave up before a worker started them"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordSolve counts a finished solve and observes its duration.
func (m *Manager) RecordSolve(engine, algorithm, status string, durationMs float64) {
	m.solves.WithLabelValues(engine, algorithm, status).Inc()
	m.solveDuration.WithLabelValues(engine, algorithm).Observe(durationMs)
}

// RecordObjective sets the latest objective for engine/algorithm.
func (m *Manager) RecordObjective(engine, algorithm string, value float64) {
	m.solveObjective.WithLabelValues(engine, algorithm).Set(value)
}

// RecordComparison observes a comparison's improvement percentage.
func (m *Manager) RecordComparison(engine string, improvementPct float64) {
	m.comparisonImprove.WithLabelValues(engine).Observe(improvementPct)
}

// RecordSolverNodes observes the search size of one ILP solve.
func (m *Manager) RecordSolverNodes(nodes int) {
	m.solverNodes.Observe(float64(nodes))
}

// UpdateQueue sets queue size, capacity and utilization together.
func (m *Manager) UpdateQueue(size, capacity int) {
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue counts an accepted job.
func (m *Manager) RecordQueueEnqueue() { m.queueEnqueued.Inc() }

// RecordQueueDequeue counts a job handed to a worker and its wait time.
func (m *Manager) RecordQueueDequeue(waitMs float64) {
	m.queueDequeued.Inc()
	m.queueWait.Observe(waitMs)
}

// RecordQueueRejected counts a refused job.
func (m *Manager) RecordQueueRejected(reason string) {
	m.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkers sets the worker gauges.
func (m *Manager) UpdateWorkers(total, active int) {
	m.workerCount.Set(float64(total))
	m.workerActiveCount.Set(float64(active))
	m.workerIdleCount.Set(float64(total - active))
}

// RecordWorkerJob observes a job run and counts it as an error when failed.
func (m *Manager) RecordWorkerJob(latencyMs float64, failed bool) {
	m.workerProcessingLatency.Observe(latencyMs)
	if failed {
		m.workerErrors.Inc()
	}
}

// RecordJobSkipped counts a job abandoned by its caller.
func (m *Manager) RecordJobSkipped() { m.jobsSkipped.Inc() }

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	m.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystem sets the memory and goroutine gauges.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int) {
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordSystemGCPauseTime observes a GC pause in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	m.systemGCPauseTime.Observe(pauseMs)
}

// Package-level helpers on the global manager.

// RecordSolve counts a finished solve on the global manager.
func RecordSolve(engine, algorithm, status string, durationMs float64) {
	globalManager.RecordSolve(engine, algorithm, status, durationMs)
}

// RecordObjective sets the latest objective on the global manager.
func RecordObjective(engine, algorithm string, value float64) {
	globalManager.RecordObjective(engine, algorithm, value)
}

// RecordComparison observes a comparison on the global manager.
func RecordComparison(engine string, improvementPct float64) {
	globalManager.RecordComparison(engine, improvementPct)
}

// RecordSolverNodes observes ILP search size on the global manager.
func RecordSolverNodes(nodes int) { globalManager.RecordSolverNodes(nodes) }

// UpdateQueue sets the queue gauges on the global manager.
func UpdateQueue(size, capacity int) { globalManager.UpdateQueue(size, capacity) }

// RecordQueueEnqueue counts an accepted job on the global manager.
func RecordQueueEnqueue() { globalManager.RecordQueueEnqueue() }

// RecordQueueDequeue counts a dequeued job on the global manager.
func RecordQueueDequeue(waitMs float64) { globalManager.RecordQueueDequeue(waitMs) }

// RecordQueueRejected counts a refused job on the global manager.
func RecordQueueRejected(reason string) { globalManager.RecordQueueRejected(reason) }

// UpdateWorkers sets the worker gauges on the global manager.
func UpdateWorkers(total, active int) { globalManager.UpdateWorkers(total, active) }

// RecordWorkerJob observes a job run on the global manager.
func RecordWorkerJob(latencyMs float64, failed bool) {
	globalManager.RecordWorkerJob(latencyMs, failed)
}

// RecordJobSkipped counts an abandoned job on the global manager.
func RecordJobSkipped() { globalManager.RecordJobSkipped() }

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByComponent counts an error on the global manager.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// UpdateSystem sets the system gauges on the global manager.
func UpdateSystem(memoryBytes uint64, goroutines int) {
	globalManager.UpdateSystem(memoryBytes, goroutines)
}

// RecordSystemGCPauseTime observes a GC pause on the global manager.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
