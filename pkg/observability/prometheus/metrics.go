package prometheus

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fluxorio/workpool/pkg/core/concurrency"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "workpool"

// PoolMetrics holds the Prometheus collectors for one worker pool.
// It implements concurrency.Observer; pass it to concurrency.WithObserver.
type PoolMetrics struct {
	TasksSubmitted *prometheus.CounterVec
	TasksRejected  *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec
	TasksPanicked  *prometheus.CounterVec
	TasksQueued    prometheus.Gauge
	LiveWorkers    prometheus.Gauge
	TaskDuration   *prometheus.HistogramVec
	QueueWait      prometheus.Histogram
	WorkerExits    *prometheus.CounterVec
}

var _ concurrency.Observer = (*PoolMetrics)(nil)

// NewPoolMetrics registers the pool collectors with registerer.
// pool becomes a constant label so several pools can share a registry.
// Registering the same namespace and pool twice returns an error wrapping
// prometheus.AlreadyRegisteredError; nothing stays registered in that case.
func NewPoolMetrics(registerer prometheus.Registerer, namespace, pool string) (*PoolMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &PoolMetrics{
		TasksSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_submitted_total",
				Help:      "Total number of submission attempts, including rejected ones",
			},
			[]string{"task"},
		),
		TasksRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_rejected_total",
				Help:      "Total number of submissions refused because the pool was closed or had no workers",
			},
			[]string{"task"},
		),
		TasksCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks that returned normally",
			},
			[]string{"task"},
		),
		TasksPanicked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_panicked_total",
				Help:      "Total number of tasks that panicked and retired their worker",
			},
			[]string{"task"},
		),
		TasksQueued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tasks_queued",
				Help:      "Tasks waiting in the queue",
			},
		),
		LiveWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workers_live",
				Help:      "Worker goroutines currently running",
			},
		),
		TaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Task execution time in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"task"},
		),
		QueueWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_queue_wait_seconds",
				Help:      "Time between submission and the start of execution",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		WorkerExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_exits_total",
				Help:      "Worker goroutine exits by worker id",
			},
			[]string{"worker"},
		),
	}

	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"pool": pool}, registerer)
	collectors := []prometheus.Collector{
		m.TasksSubmitted, m.TasksRejected, m.TasksCompleted, m.TasksPanicked,
		m.TasksQueued, m.LiveWorkers, m.TaskDuration, m.QueueWait, m.WorkerExits,
	}
	for i, c := range collectors {
		if err := wrapped.Register(c); err != nil {
			for _, done := range collectors[:i] {
				wrapped.Unregister(done)
			}
			return nil, fmt.Errorf("register metrics for pool %q: %w", pool, err)
		}
	}
	return m, nil
}

// TaskSubmitted implements concurrency.Observer
func (m *PoolMetrics) TaskSubmitted(name string) {
	m.TasksSubmitted.WithLabelValues(name).Inc()
	m.TasksQueued.Inc()
}

// TaskRejected implements concurrency.Observer
func (m *PoolMetrics) TaskRejected(name string) {
	m.TasksRejected.WithLabelValues(name).Inc()
	m.TasksQueued.Dec()
}

// TaskStarted implements concurrency.Observer
func (m *PoolMetrics) TaskStarted(_ int, _ string, waited time.Duration) {
	m.TasksQueued.Dec()
	m.QueueWait.Observe(waited.Seconds())
}

// TaskFinished implements concurrency.Observer
func (m *PoolMetrics) TaskFinished(_ int, name string, took time.Duration, panicked bool) {
	m.TaskDuration.WithLabelValues(name).Observe(took.Seconds())
	if panicked {
		m.TasksPanicked.WithLabelValues(name).Inc()
		return
	}
	m.TasksCompleted.WithLabelValues(name).Inc()
}

// WorkerStarted implements concurrency.Observer
func (m *PoolMetrics) WorkerStarted(int) {
	m.LiveWorkers.Inc()
}

// WorkerExited implements concurrency.Observer
func (m *PoolMetrics) WorkerExited(workerID int) {
	m.LiveWorkers.Dec()
	m.WorkerExits.WithLabelValues(strconv.Itoa(workerID)).Inc()
}
