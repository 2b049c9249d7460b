package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the probe scheduler.
type Metrics struct {
	Runs        prometheus.Counter
	RunsSkipped prometheus.Counter
	RunDuration prometheus.Histogram
}

// NewMetrics creates and registers scheduler metrics.
// Returns nil if reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "credcheck",
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Total scheduled probe runs.",
		}),
		RunsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "credcheck",
			Subsystem: "scheduler",
			Name:      "runs_skipped_total",
			Help:      "Total schedule slots skipped because a previous run was still in progress.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "credcheck",
			Subsystem: "scheduler",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of each scheduled probe run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 15, 30, 60},
		}),
	}

	reg.MustRegister(
		m.Runs,
		m.RunsSkipped,
		m.RunDuration,
	)

	return m
}
