package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/jkaninda/credcheck/internal/config"
	"github.com/jkaninda/credcheck/internal/llm"
	"github.com/jkaninda/credcheck/internal/probe"
)

// --- No-op Path ---

func TestNew_NilConfig(t *testing.T) {
	obs, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New(nil) error: %v", err)
	}
	if obs != nil {
		t.Fatal("expected nil Observability for nil config")
	}
}

func TestNew_AllDisabled(t *testing.T) {
	obs, err := New(&config.ObservabilityConfig{}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if obs == nil {
		t.Fatal("expected non-nil Observability")
	}
	if obs.Metrics != nil {
		t.Error("metrics should be nil when not enabled")
	}
	if obs.Tracer != nil {
		t.Error("tracer should be nil when not enabled")
	}
	if obs.Health == nil {
		t.Error("health checker should always be created")
	}
	if obs.Recorder() != nil {
		t.Error("recorder should be nil with metrics and tracing off")
	}
}

func TestObservability_NilSafe(t *testing.T) {
	// None of these should panic.
	var obs *Observability
	obs.Shutdown(context.Background())
	if obs.TracerOrNil() != nil {
		t.Error("expected nil tracer from nil Observability")
	}
	if obs.MetricsOrNil() != nil {
		t.Error("expected nil metrics from nil Observability")
	}
	if obs.Recorder() != nil {
		t.Error("expected nil recorder from nil Observability")
	}
	inner := &mockProvider{name: "x"}
	if obs.WrapProvider(inner) != llm.Provider(inner) {
		t.Error("WrapProvider should return the provider unchanged when disabled")
	}
	var m *MetricsCollector
	m.RecordSecrets("environment", 1, 0)
	if err := m.WriteTextfile("unused"); err != nil {
		t.Errorf("WriteTextfile on nil collector: %v", err)
	}
}

// --- Tracing ---

func TestNewTracerSetup_Disabled(t *testing.T) {
	ts, err := NewTracerSetup(&config.TracingConfig{Enabled: false})
	if err != nil || ts != nil {
		t.Fatalf("expected nil setup, got %v, %v", ts, err)
	}
	// A nil setup still hands out a usable tracer.
	_, span := ts.Tracer().Start(context.Background(), "probe.github")
	span.End()
	if err := ts.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown on nil setup: %v", err)
	}
}

func TestNewTracerSetup_Protocols(t *testing.T) {
	for _, proto := range []string{"grpc", "http"} {
		t.Run(proto, func(t *testing.T) {
			ts, err := NewTracerSetup(&config.TracingConfig{
				Enabled:  true,
				Endpoint: "127.0.0.1:1",
				Protocol: proto,
				Insecure: true,
			})
			if err != nil {
				t.Fatalf("NewTracerSetup() error: %v", err)
			}
			if ts == nil || ts.Tracer() == nil {
				t.Fatal("expected tracer setup")
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = ts.Shutdown(ctx)
		})
	}
}

// --- MetricsCollector ---

func TestMetricsCollector_Created(t *testing.T) {
	m := NewMetricsCollector()
	if m == nil || m.Registry == nil {
		t.Fatal("expected collector with registry")
	}

	// Vec metrics only appear in Gather after first use.
	m.ProbeRunsTotal.WithLabelValues("github", "success").Inc()
	m.ProbeDuration.WithLabelValues("github").Observe(0.2)
	m.ProbeLastSuccess.WithLabelValues("github").Set(1)
	m.RecordSecrets("file", 3, 0)
	m.LLMRequestsTotal.WithLabelValues("openai", "gpt-3.5-turbo", "success").Inc()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/readyz", "200").Inc()

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gather error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, expected := range []string{
		"credcheck_probe_runs_total",
		"credcheck_probe_duration_seconds",
		"credcheck_probe_last_success_timestamp_seconds",
		"credcheck_secrets_loaded",
		"credcheck_secrets_missing_required",
		"credcheck_llm_requests_total",
		"credcheck_http_requests_total",
	} {
		if !names[expected] {
			t.Errorf("metric %q not found in registry", expected)
		}
	}
}

func TestMetricsCollector_RecordSecrets(t *testing.T) {
	m := NewMetricsCollector()
	m.RecordSecrets("environment", 4, 0)
	m.RecordSecrets("file", 2, 1)

	if v := gaugeValue(t, m.Registry, "credcheck_secrets_loaded", prometheus.Labels{"source": "file"}); v != 2 {
		t.Errorf("secrets_loaded{file} = %v, want 2", v)
	}
	if v := gaugeValue(t, m.Registry, "credcheck_secrets_loaded", prometheus.Labels{"source": "environment"}); v != 0 {
		t.Errorf("stale secrets_loaded{environment} = %v, want it reset", v)
	}
	if v := gaugeValue(t, m.Registry, "credcheck_secrets_missing_required", nil); v != 1 {
		t.Errorf("secrets_missing_required = %v, want 1", v)
	}
}

func TestMetricsCollector_WriteTextfile(t *testing.T) {
	m := NewMetricsCollector()
	m.ProbeRunsTotal.WithLabelValues("pypi", "timeout").Inc()

	path := filepath.Join(t.TempDir(), "credcheck.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `credcheck_probe_runs_total{provider="pypi",status="timeout"} 1`) {
		t.Errorf("textfile missing probe counter:\n%s", data)
	}
}

func labelMap(pairs []*dto.LabelPair) map[string]string {
	m := make(map[string]string)
	for _, p := range pairs {
		m[p.GetName()] = p.GetValue()
	}
	return m
}

// --- ProbeRecorder ---

func TestProbeRecorder_RecordsResult(t *testing.T) {
	metrics := NewMetricsCollector()
	rec := NewProbeRecorder(metrics, nil)
	rec.now = func() time.Time { return time.Unix(1700000000, 0) }

	_, done := rec.Start(context.Background(), "github")
	done(probe.Result{Provider: "github", Status: probe.StatusSuccess, Elapsed: 300 * time.Millisecond})
	_, done = rec.Start(context.Background(), "pypi")
	done(probe.Result{Provider: "pypi", Status: probe.StatusTimeout, Elapsed: 15 * time.Second})

	if v := counterValue(t, metrics.Registry, "credcheck_probe_runs_total", prometheus.Labels{"provider": "github", "status": "success"}); v != 1 {
		t.Errorf("github success runs = %v, want 1", v)
	}
	if v := counterValue(t, metrics.Registry, "credcheck_probe_runs_total", prometheus.Labels{"provider": "pypi", "status": "timeout"}); v != 1 {
		t.Errorf("pypi timeout runs = %v, want 1", v)
	}
	if v := gaugeValue(t, metrics.Registry, "credcheck_probe_last_success_timestamp_seconds", prometheus.Labels{"provider": "github"}); v != 1700000000 {
		t.Errorf("github last success = %v", v)
	}
	if v := gaugeValue(t, metrics.Registry, "credcheck_probe_last_success_timestamp_seconds", prometheus.Labels{"provider": "pypi"}); v != 0 {
		t.Errorf("pypi last success = %v, want unset", v)
	}
}

func TestProbeRecorder_NilMetrics(t *testing.T) {
	// Should not panic with neither metrics nor tracer.
	rec := NewProbeRecorder(nil, nil)
	ctx, done := rec.Start(context.Background(), "openai")
	if ctx == nil {
		t.Fatal("expected context")
	}
	done(probe.Result{Provider: "openai", Status: probe.StatusFailure})
}

// --- InstrumentedProvider (wrapper) ---

type mockProvider struct {
	name   string
	resp   *llm.Response
	err    error
	called int
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) SendMessage(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	m.called++
	return m.resp, m.err
}

func TestInstrumentedProvider_Success(t *testing.T) {
	metrics := NewMetricsCollector()
	inner := &mockProvider{
		name: "openai",
		resp: &llm.Response{
			Content: "hello",
			Model:   "gpt-3.5-turbo",
			Usage:   llm.Usage{InputTokens: 10, OutputTokens: 2},
		},
	}

	p := NewInstrumentedProvider(inner, metrics, nil)
	resp, err := p.SendMessage(context.Background(), &llm.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("content = %q, want hello", resp.Content)
	}
	if inner.called != 1 {
		t.Errorf("inner called %d times, want 1", inner.called)
	}

	val := counterValue(t, metrics.Registry, "credcheck_llm_requests_total", prometheus.Labels{"provider": "openai", "model": "gpt-3.5-turbo", "status": "success"})
	if val != 1 {
		t.Errorf("requests_total = %v, want 1", val)
	}
	val = counterValue(t, metrics.Registry, "credcheck_llm_tokens_used_total", prometheus.Labels{"provider": "openai", "direction": "output"})
	if val != 2 {
		t.Errorf("output tokens = %v, want 2", val)
	}
}

func TestInstrumentedProvider_Error(t *testing.T) {
	metrics := NewMetricsCollector()
	inner := &mockProvider{
		name: "grok",
		err:  errors.New("api error"),
	}

	p := NewInstrumentedProvider(inner, metrics, nil)
	_, err := p.SendMessage(context.Background(), &llm.Request{Model: "grok-2"})
	if err == nil {
		t.Fatal("expected error")
	}

	val := counterValue(t, metrics.Registry, "credcheck_llm_requests_total", prometheus.Labels{"provider": "grok", "model": "grok-2", "status": "error"})
	if val != 1 {
		t.Errorf("error requests_total = %v, want 1", val)
	}
}

// --- HealthChecker ---

func TestHealthChecker_NoChecks(t *testing.T) {
	h := NewHealthChecker(nil)
	status := h.CheckReady(context.Background(), nil)
	if status.Status != "ok" {
		t.Errorf("status = %q, want ok", status.Status)
	}
	if status.Checks != nil {
		t.Errorf("checks = %v, want none", status.Checks)
	}
}

func TestHealthChecker_OneFails(t *testing.T) {
	h := NewHealthChecker(nil)
	h.AddCheck("last_run", func(ctx context.Context) error { return errors.New("no run yet") })
	h.AddCheck("other", func(ctx context.Context) error { return nil })

	status := h.CheckReady(context.Background(), nil)
	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if status.Checks["last_run"].Status != "fail" {
		t.Errorf("last_run check = %q, want fail", status.Checks["last_run"].Status)
	}
	if status.Checks["other"].Status != "ok" {
		t.Errorf("other check = %q, want ok", status.Checks["other"].Status)
	}
}

func TestHealthChecker_ReportResults(t *testing.T) {
	h := NewHealthChecker(nil)
	report := &probe.Report{RunID: "run-1", Results: []probe.Result{
		{Provider: "github", Status: probe.StatusSuccess, Detail: "authenticated as octocat"},
		{Provider: "openai", Status: probe.StatusFailure, Detail: "credential not configured"},
	}}

	status := h.CheckReady(context.Background(), report)
	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if status.RunID != "run-1" {
		t.Errorf("run_id = %q", status.RunID)
	}
	if got := status.Checks["openai"]; got.Status != "fail" || got.Message != "credential not configured" {
		t.Errorf("openai = %+v", got)
	}
	if status.Checks["github"].Status != "ok" {
		t.Errorf("github = %+v", status.Checks["github"])
	}

	report.Results = report.Results[:1]
	if s := h.CheckReady(context.Background(), report); s.Status != "ok" {
		t.Errorf("status = %q, want ok when every probe passed", s.Status)
	}
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	status := h.CheckHealth()
	if status.Status != "ok" {
		t.Errorf("liveness status = %q, want ok", status.Status)
	}
}

// --- HTTP Middleware ---

func TestHTTPMetricsMiddleware(t *testing.T) {
	metrics := NewMetricsCollector()

	handler := HTTPMetricsMiddleware(metrics, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	req := httptest.NewRequest("GET", "/readyz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	val := counterValue(t, metrics.Registry, "credcheck_http_requests_total", prometheus.Labels{"method": "GET", "path": "/readyz", "status_code": "503"})
	if val != 1 {
		t.Errorf("http requests = %v, want 1", val)
	}
}

func TestHTTPMetricsMiddleware_NilMetrics(t *testing.T) {
	// Should not panic with nil metrics.
	handler := HTTPMetricsMiddleware(nil, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// --- Helpers ---

func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels prometheus.Labels) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			lm := labelMap(metric.GetLabel())
			match := true
			for k, v := range labels {
				if lm[k] != v {
					match = false
					break
				}
			}
			if match {
				return metric
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels prometheus.Labels) float64 {
	t.Helper()
	return findMetric(t, reg, name, labels).GetCounter().GetValue()
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string, labels prometheus.Labels) float64 {
	t.Helper()
	return findMetric(t, reg, name, labels).GetGauge().GetValue()
}
