package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/jkaninda/credcheck/internal/probe"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) Run(context.Context) *probe.Report {
	n := r.runs.Add(1)
	return &probe.Report{RunID: string(rune('a' + n - 1))}
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	if _, err := New(&countingRunner{}, "not a schedule", nil, nil, discardLogger()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestScheduler_RunsImmediatelyAndOnSchedule(t *testing.T) {
	runner := &countingRunner{}
	var mu sync.Mutex
	var got []string
	sink := func(r *probe.Report) {
		mu.Lock()
		got = append(got, r.RunID)
		mu.Unlock()
	}

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	s, err := New(runner, "@every 1s", sink, metrics, discardLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cancel := s.Start(context.Background())
	deadline := time.Now().Add(3 * time.Second)
	for runner.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()

	if n := runner.runs.Load(); n < 2 {
		t.Fatalf("runs = %d, want at least 2", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) < 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("sink saw %v, want reports a then b", got)
	}
	var m dto.Metric
	if err := metrics.Runs.Write(&m); err != nil {
		t.Fatalf("reading runs_total: %v", err)
	}
	if v := m.GetCounter().GetValue(); v < 2 {
		t.Errorf("runs_total = %v, want >= 2", v)
	}
}

func TestScheduler_CountsMissedSlots(t *testing.T) {
	s, err := New(&countingRunner{}, "@every 1m", nil, nil, discardLogger())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if n := s.missed(start, start.Add(30*time.Second)); n != 0 {
		t.Errorf("missed(30s) = %d, want 0", n)
	}
	if n := s.missed(start, start.Add(150*time.Second)); n != 2 {
		t.Errorf("missed(150s) = %d, want 2", n)
	}
}

func TestComputeNextRunFrom(t *testing.T) {
	from := time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)
	next, err := ComputeNextRunFrom("*/15 * * * *", from)
	if err != nil {
		t.Fatalf("ComputeNextRunFrom() error: %v", err)
	}
	if want := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	if _, err := ComputeNextRunFrom("bogus", from); err == nil {
		t.Error("expected error for bogus expression")
	}
}

func TestNewMetrics_NilRegistry(t *testing.T) {
	if NewMetrics(nil) != nil {
		t.Error("expected nil metrics for nil registry")
	}
}
