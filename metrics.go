package buildpipe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-task execution metrics. Attach it to a Runner via
// its TaskMiddleware.
type Metrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics with the given
// registerer. A nil registerer uses the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "buildpipe",
			Name:      "task_duration_seconds",
			Help:      "Duration of pipeline task executions.",
		}, []string{"task"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildpipe",
			Name:      "task_failures_total",
			Help:      "Number of failed pipeline task executions.",
		}, []string{"task"}),
	}

	reg.MustRegister(m.duration, m.failures)
	return m
}

// TaskMiddleware returns per-task middleware that times every execution
// and counts failures.
func (m *Metrics) TaskMiddleware() TaskMiddleware {
	return func(next TaskRunnerFunc) TaskRunnerFunc {
		return func(ctx *TaskContext, task Task) error {
			start := time.Now()
			err := next(ctx, task)
			m.duration.WithLabelValues(task.Name()).Observe(time.Since(start).Seconds())
			if err != nil {
				m.failures.WithLabelValues(task.Name()).Inc()
			}
			return err
		}
	}
}
