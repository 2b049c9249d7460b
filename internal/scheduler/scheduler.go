// Package scheduler re-runs the probe harness on a cron schedule for watch
// mode. Runs never overlap: a run that overruns its slot skips the slots it
// missed.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jkaninda/credcheck/internal/config"
	"github.com/jkaninda/credcheck/internal/probe"
)

// Runner executes one probe pass.
type Runner interface {
	Run(ctx context.Context) *probe.Report
}

// Sink receives every completed report.
type Sink func(*probe.Report)

// Scheduler drives a Runner from a cron schedule.
type Scheduler struct {
	runner  Runner
	sink    Sink
	expr    string
	sched   cron.Schedule
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New parses expr and returns a Scheduler. metrics may be nil.
func New(runner Runner, expr string, sink Sink, metrics *Metrics, logger *slog.Logger) (*Scheduler, error) {
	sched, err := config.ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = func(*probe.Report) {}
	}
	return &Scheduler{
		runner:  runner,
		sink:    sink,
		expr:    expr,
		sched:   sched,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Start runs the harness once immediately, then on every scheduled slot.
// Returns a cancel function.
func (s *Scheduler) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		s.logger.InfoContext(ctx, "probe scheduler started",
			slog.String("schedule", s.expr),
		)

		s.tick(ctx)
		for {
			next := s.sched.Next(s.now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info("probe scheduler stopped")
				return
			case <-timer.C:
				s.tick(ctx)
			}
		}
	}()

	return cancel
}

// tick runs one probe pass and hands the report to the sink.
func (s *Scheduler) tick(ctx context.Context) {
	start := s.now()
	report := s.runner.Run(ctx)
	elapsed := s.now().Sub(start)

	if s.metrics != nil {
		s.metrics.Runs.Inc()
		s.metrics.RunDuration.Observe(elapsed.Seconds())
		if n := s.missed(start, s.now()); n > 0 {
			s.metrics.RunsSkipped.Add(float64(n))
		}
	}

	s.logger.InfoContext(ctx, "scheduled probe run finished",
		slog.String("run_id", report.RunID),
		slog.Int("passed", report.Passed()),
		slog.Int("total", len(report.Results)),
		slog.String("next_run", s.sched.Next(s.now()).UTC().Format(time.RFC3339)),
	)
	s.sink(report)
}

// missed counts the schedule slots that fell inside a run.
func (s *Scheduler) missed(start, end time.Time) int {
	n := 0
	for t := s.sched.Next(start); t.Before(end); t = s.sched.Next(t) {
		n++
		if n > 1000 {
			break
		}
	}
	return n
}

// ComputeNextRunFrom computes the next run time from a given reference time.
func ComputeNextRunFrom(expr string, from time.Time) (time.Time, error) {
	sched, err := config.ParseSchedule(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("computing next run: %w", err)
	}
	return sched.Next(from), nil
}
