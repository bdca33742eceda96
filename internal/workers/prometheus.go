package workers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics exports pool activity as Prometheus collectors.
type PrometheusMetrics struct {
	workers      prometheus.Gauge
	active       prometheus.Gauge
	queued       prometheus.Gauge
	submitted    prometheus.Counter
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
}

// InitPrometheusMetrics creates and registers the pool collectors.
// A nil reg registers with prometheus.DefaultRegisterer.
func InitPrometheusMetrics(namespace string, workers int, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		workers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_workers",
				Help:      "Number of pool workers",
			},
		),
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_active_tasks",
				Help:      "Number of tasks currently running on a worker",
			},
		),
		queued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_queued_tasks",
				Help:      "Number of tasks waiting for a worker",
			},
		),
		submitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_tasks_submitted_total",
				Help:      "Total number of accepted task submissions",
			},
		),
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_tasks_total",
				Help:      "Total number of tasks by outcome",
			},
			[]string{"status"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pool_task_duration_seconds",
				Help:      "Duration of pool tasks",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.workers,
		m.active,
		m.queued,
		m.submitted,
		m.tasksTotal,
		m.taskDuration,
	)

	m.workers.Set(float64(workers))
	return m
}

// RecordTask counts a finished task and observes its duration by status.
func (m *PrometheusMetrics) RecordTask(status string, duration time.Duration) {
	m.tasksTotal.WithLabelValues(status).Inc()
	m.taskDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// SetCounts updates the active and queued task gauges.
func (m *PrometheusMetrics) SetCounts(active, queued int64) {
	m.active.Set(float64(active))
	m.queued.Set(float64(queued))
}
