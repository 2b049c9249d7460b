package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jkaninda/credcheck/internal/secrets"
)

const defaultConcurrency = 4

// Recorder observes probe runs. Start is called before each probe and the
// returned func receives its final Result.
type Recorder interface {
	Start(ctx context.Context, provider string) (context.Context, func(Result))
}

// Registration pairs a checker with its hard deadline.
type Registration struct {
	Checker Checker
	Timeout time.Duration
}

// Harness runs registered checkers against credentials read from an Environment.
type Harness struct {
	env         secrets.Environment
	entries     []Registration
	concurrency int
	recorder    Recorder
	logger      *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithConcurrency bounds how many probes are in flight at once.
func WithConcurrency(n int) Option {
	return func(h *Harness) {
		if n > 0 {
			h.concurrency = n
		}
	}
}

// WithRecorder attaches metrics/tracing instrumentation.
func WithRecorder(r Recorder) Option {
	return func(h *Harness) { h.recorder = r }
}

// NewHarness creates a Harness with no checkers registered.
func NewHarness(env secrets.Environment, logger *slog.Logger, opts ...Option) *Harness {
	h := &Harness{
		env:         env,
		concurrency: defaultConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a checker. Results keep registration order.
func (h *Harness) Register(c Checker, timeout time.Duration) {
	h.entries = append(h.entries, Registration{Checker: c, Timeout: timeout})
}

// RegisterAll adds each registration in order.
func (h *Harness) RegisterAll(regs []Registration) {
	for _, r := range regs {
		h.Register(r.Checker, r.Timeout)
	}
}

// Providers returns the registered provider names in order.
func (h *Harness) Providers() []string {
	names := make([]string, len(h.entries))
	for i, e := range h.entries {
		names[i] = e.Checker.Name()
	}
	return names
}

// Run executes every registered checker exactly once and always returns a
// complete report.
func (h *Harness) Run(ctx context.Context) *Report {
	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		Results:   make([]Result, len(h.entries)),
	}
	for i, e := range h.entries {
		report.Results[i] = Result{Provider: e.Checker.Name(), Status: StatusNotRun}
	}

	var g errgroup.Group
	g.SetLimit(h.concurrency)
	for i, e := range h.entries {
		g.Go(func() error {
			report.Results[i] = h.runOne(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	report.Elapsed = time.Since(start)
	h.logger.InfoContext(ctx, "probe run completed",
		slog.String("run_id", report.RunID),
		slog.Int("passed", report.Passed()),
		slog.Int("total", len(report.Results)),
		slog.Duration("elapsed", report.Elapsed),
	)
	return report
}

func (h *Harness) runOne(ctx context.Context, e Registration) Result {
	name := e.Checker.Name()
	res := Result{Provider: name, Status: StatusRunning}

	finish := func(Result) {}
	if h.recorder != nil {
		ctx, finish = h.recorder.Start(ctx, name)
	}

	creds, missing := h.lookup(e.Checker.Credentials())
	if missing != "" {
		res.Status, res.Detail = StatusFailure, detailNotConfigured
		h.logger.DebugContext(ctx, "probe skipped",
			slog.String("provider", name),
			slog.String("missing", missing),
		)
		finish(res)
		return res
	}

	start := time.Now()
	detail, err := RunWithDeadline(ctx, e.Timeout, func(ctx context.Context) (string, error) {
		return e.Checker.Check(ctx, creds)
	})
	res.Elapsed = time.Since(start)
	res.Status, res.Detail = Classify(detail, err, e.Timeout)

	attrs := []any{
		slog.String("provider", name),
		slog.String("status", res.Status.String()),
		slog.Duration("elapsed", res.Elapsed),
	}
	if err != nil {
		h.logger.WarnContext(ctx, "probe failed", append(attrs, slog.String("error", err.Error()))...)
	} else {
		h.logger.InfoContext(ctx, "probe passed", attrs...)
	}

	finish(res)
	return res
}

// lookup resolves every credential; it returns the first missing name.
func (h *Harness) lookup(required []Credential) (Credentials, string) {
	creds := make(Credentials, len(required))
	for _, c := range required {
		v, ok := h.lookupOne(c)
		if !ok {
			return nil, c.Name
		}
		creds[c.Name] = v
	}
	return creds, ""
}

func (h *Harness) lookupOne(c Credential) (string, bool) {
	for _, name := range append([]string{c.Name}, c.Aliases...) {
		if v, ok := h.env.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}
