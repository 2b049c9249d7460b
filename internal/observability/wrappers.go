package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jkaninda/credcheck/internal/llm"
	"github.com/jkaninda/credcheck/internal/probe"
)

// --- ProbeRecorder ---

// ProbeRecorder implements probe.Recorder with metrics and one span per probe.
type ProbeRecorder struct {
	metrics *MetricsCollector
	tracer  trace.Tracer
	now     func() time.Time
}

// NewProbeRecorder creates a recorder. Either argument may be nil.
func NewProbeRecorder(metrics *MetricsCollector, ts *TracerSetup) *ProbeRecorder {
	var tracer trace.Tracer
	if ts != nil {
		tracer = ts.Tracer()
	}
	return &ProbeRecorder{metrics: metrics, tracer: tracer, now: time.Now}
}

// Start opens a "probe.<provider>" span and returns the func that closes it
// and records the result.
func (r *ProbeRecorder) Start(ctx context.Context, provider string) (context.Context, func(probe.Result)) {
	var span trace.Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "probe."+provider,
			trace.WithAttributes(
				attribute.String("probe.provider", provider),
			))
	}

	return ctx, func(res probe.Result) {
		if span != nil {
			span.SetAttributes(
				attribute.String("probe.status", res.Status.String()),
				attribute.String("probe.detail", res.Detail),
			)
			if res.Success() {
				span.SetStatus(codes.Ok, "")
			} else {
				span.SetStatus(codes.Error, res.Detail)
			}
			span.End()
		}

		if r.metrics != nil {
			r.metrics.ProbeRunsTotal.WithLabelValues(provider, res.Status.String()).Inc()
			r.metrics.ProbeDuration.WithLabelValues(provider).Observe(res.Elapsed.Seconds())
			if res.Success() {
				r.metrics.ProbeLastSuccess.WithLabelValues(provider).Set(float64(r.now().Unix()))
			}
		}
	}
}

// --- InstrumentedProvider ---

// InstrumentedProvider wraps an llm.Provider with metrics and tracing.
type InstrumentedProvider struct {
	inner   llm.Provider
	metrics *MetricsCollector
	tracer  trace.Tracer
}

// NewInstrumentedProvider wraps an LLM provider with observability.
func NewInstrumentedProvider(inner llm.Provider, metrics *MetricsCollector, ts *TracerSetup) *InstrumentedProvider {
	var tracer trace.Tracer
	if ts != nil {
		tracer = ts.Tracer()
	}
	return &InstrumentedProvider{
		inner:   inner,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (p *InstrumentedProvider) Name() string { return p.inner.Name() }

func (p *InstrumentedProvider) SendMessage(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	provider := p.inner.Name()

	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.Start(ctx, "llm.send_message",
			trace.WithAttributes(
				attribute.String("llm.provider", provider),
				attribute.String("llm.model", req.Model),
			))
		defer span.End()
	}

	start := time.Now()
	resp, err := p.inner.SendMessage(ctx, req)
	duration := time.Since(start).Seconds()

	model := req.Model
	if resp != nil && resp.Model != "" {
		model = resp.Model
	}

	status := "success"
	if err != nil {
		status = "error"
		if p.tracer != nil {
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}

	if p.metrics != nil {
		p.metrics.LLMRequestsTotal.WithLabelValues(provider, model, status).Inc()
		p.metrics.LLMRequestDuration.WithLabelValues(provider, model).Observe(duration)

		if resp != nil {
			p.metrics.LLMTokensUsed.WithLabelValues(provider, model, "input").Add(float64(resp.Usage.InputTokens))
			p.metrics.LLMTokensUsed.WithLabelValues(provider, model, "output").Add(float64(resp.Usage.OutputTokens))
		}
	}

	return resp, err
}
