package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds all Prometheus metrics for credcheck.
// Uses a custom registry, no global state.
type MetricsCollector struct {
	Registry *prometheus.Registry

	// Probe metrics.
	ProbeRunsTotal   *prometheus.CounterVec
	ProbeDuration    *prometheus.HistogramVec
	ProbeLastSuccess *prometheus.GaugeVec

	// Secret resolution metrics.
	SecretsLoaded          *prometheus.GaugeVec
	SecretsMissingRequired prometheus.Gauge

	// LLM metrics.
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	LLMTokensUsed      *prometheus.CounterVec

	// HTTP metrics for watch mode.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveRequests      prometheus.Gauge
}

// NewMetricsCollector creates a MetricsCollector with all metrics registered
// on a custom prometheus.Registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	m := &MetricsCollector{
		Registry: reg,

		ProbeRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credcheck",
			Name:      "probe_runs_total",
			Help:      "Total probe executions by terminal status.",
		}, []string{"provider", "status"}),

		ProbeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "credcheck",
			Name:      "probe_duration_seconds",
			Help:      "Probe duration in seconds, bounded by the per-provider deadline.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		}, []string{"provider"}),

		ProbeLastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "credcheck",
			Name:      "probe_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful probe.",
		}, []string{"provider"}),

		SecretsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "credcheck",
			Name:      "secrets_loaded",
			Help:      "Secrets exported by the last resolution, by source.",
		}, []string{"source"}),

		SecretsMissingRequired: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "credcheck",
			Name:      "secrets_missing_required",
			Help:      "Required secrets missing in the last resolution.",
		}),

		LLMRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credcheck",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total LLM API requests.",
		}, []string{"provider", "model", "status"}),

		LLMRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "credcheck",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "LLM API request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider", "model"}),

		LLMTokensUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credcheck",
			Subsystem: "llm",
			Name:      "tokens_used_total",
			Help:      "Total LLM tokens consumed by probes.",
		}, []string{"provider", "model", "direction"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credcheck",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "credcheck",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "credcheck",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),
	}

	// Register all collectors.
	reg.MustRegister(
		m.ProbeRunsTotal,
		m.ProbeDuration,
		m.ProbeLastSuccess,
		m.SecretsLoaded,
		m.SecretsMissingRequired,
		m.LLMRequestsTotal,
		m.LLMRequestDuration,
		m.LLMTokensUsed,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ActiveRequests,
	)

	return m
}

// RecordSecrets records the outcome of one resolution.
func (m *MetricsCollector) RecordSecrets(source string, loaded, missingRequired int) {
	if m == nil {
		return
	}
	m.SecretsLoaded.Reset()
	m.SecretsLoaded.WithLabelValues(source).Set(float64(loaded))
	m.SecretsMissingRequired.Set(float64(missingRequired))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *MetricsCollector) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
