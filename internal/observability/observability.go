// Package observability instruments probe runs and secret resolution with
// Prometheus metrics and OpenTelemetry spans, and derives readiness from the
// latest probe report. Every piece is optional and nil-safe.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jkaninda/credcheck/internal/config"
	"github.com/jkaninda/credcheck/internal/llm"
	"github.com/jkaninda/credcheck/internal/probe"
)

// Observability bundles the optional components. Metrics and Tracer are nil
// when disabled; Health is always set by New.
type Observability struct {
	Metrics *MetricsCollector
	Tracer  *TracerSetup
	Health  *HealthChecker
}

// New builds the components cfg enables. A nil cfg yields a nil facade,
// which every method accepts.
func New(cfg *config.ObservabilityConfig, logger *slog.Logger) (*Observability, error) {
	if cfg == nil {
		return nil, nil
	}
	obs := &Observability{Health: NewHealthChecker(logger)}
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		obs.Metrics = NewMetricsCollector()
	}
	ts, err := NewTracerSetup(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	obs.Tracer = ts
	return obs, nil
}

func (o *Observability) instrumented() bool {
	return o != nil && (o.Metrics != nil || o.Tracer != nil)
}

// Shutdown flushes pending spans.
func (o *Observability) Shutdown(ctx context.Context) {
	if o != nil {
		_ = o.Tracer.Shutdown(ctx)
	}
}

// TracerOrNil returns the tracer setup, nil when tracing is off.
func (o *Observability) TracerOrNil() *TracerSetup {
	if o == nil {
		return nil
	}
	return o.Tracer
}

// MetricsOrNil returns the collector, nil when metrics are off.
func (o *Observability) MetricsOrNil() *MetricsCollector {
	if o == nil {
		return nil
	}
	return o.Metrics
}

// Recorder returns the harness hook, or nil when nothing is instrumented.
func (o *Observability) Recorder() probe.Recorder {
	if !o.instrumented() {
		return nil
	}
	return NewProbeRecorder(o.Metrics, o.Tracer)
}

// WrapProvider instruments the LLM client a probe uses. p is returned
// unchanged when nothing is instrumented.
func (o *Observability) WrapProvider(p llm.Provider) llm.Provider {
	if !o.instrumented() {
		return p
	}
	return NewInstrumentedProvider(p, o.Metrics, o.Tracer)
}
