package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	operations          *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	persistenceDuration *prometheus.HistogramVec
	taskTextLength      prometheus.Histogram
	tasks               *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpad_operations_total",
				Help: "Task store operations by outcome",
			},
			[]string{"op", "status"},
		),
		persistenceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpad_persistence_failures_total",
				Help: "Failed loads and saves of the task list",
			},
			[]string{"op"},
		),
		persistenceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskpad_persistence_duration_seconds",
				Help:    "Duration of task list loads and saves in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		taskTextLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskpad_task_text_length_bytes",
				Help:    "Length distribution of added task texts",
				Buckets: []float64{16, 32, 64, 128, 256, 1024},
			},
		),
		tasks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskpad_tasks",
				Help: "Tasks currently held, by state",
			},
			[]string{"state"},
		),
	}
	m.Registry.MustRegister(
		m.operations,
		m.persistenceFailures,
		m.persistenceDuration,
		m.taskTextLength,
		m.tasks,
	)
	return m
}

// Operation counts one store operation. ok is false for rejected adds and
// lookup misses.
func (m *Metrics) Operation(op string, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "miss"
	}
	m.operations.WithLabelValues(op, status).Inc()
}

func (m *Metrics) Persistence(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.persistenceDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if err != nil {
		m.persistenceFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) TextLength(n int) {
	if m == nil {
		return
	}
	m.taskTextLength.Observe(float64(n))
}

func (m *Metrics) TaskCounts(active, completed int) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues("active").Set(float64(active))
	m.tasks.WithLabelValues("completed").Set(float64(completed))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
