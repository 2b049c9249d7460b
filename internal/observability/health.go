package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/jkaninda/credcheck/internal/probe"
)

const healthCheckTimeout = 3 * time.Second

// HealthChecker derives readiness from named checks plus the per-provider
// results of the latest probe report.
type HealthChecker struct {
	checks []HealthCheck
	logger *slog.Logger
}

// HealthCheck is a named readiness check.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthStatus is the JSON body of /healthz and /readyz.
type HealthStatus struct {
	Status  string                 `json:"status"` // "ok" or "degraded"
	RunID   string                 `json:"run_id,omitempty"`
	LastRun *time.Time             `json:"last_run,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is one check or one provider. Status is "ok" or "fail".
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthChecker creates a HealthChecker with no checks registered.
func NewHealthChecker(logger *slog.Logger) *HealthChecker {
	return &HealthChecker{logger: logger}
}

// AddCheck registers a named readiness check.
func (h *HealthChecker) AddCheck(name string, check func(ctx context.Context) error) {
	h.checks = append(h.checks, HealthCheck{Name: name, Check: check})
}

// CheckHealth reports liveness, which holds while the process serves.
func (h *HealthChecker) CheckHealth() HealthStatus {
	return HealthStatus{Status: "ok"}
}

// CheckReady is "ok" only when every registered check passes and every
// probe in report succeeded. report may be nil.
func (h *HealthChecker) CheckReady(ctx context.Context, report *probe.Report) HealthStatus {
	status := HealthStatus{Status: "ok", Checks: map[string]CheckResult{}}
	record := func(name string, ok bool, msg string) {
		if !ok {
			status.Status = "degraded"
			status.Checks[name] = CheckResult{Status: "fail", Message: msg}
			return
		}
		status.Checks[name] = CheckResult{Status: "ok", Message: msg}
	}

	if len(h.checks) > 0 {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
		for _, c := range h.checks {
			err := c.Check(checkCtx)
			if err == nil {
				record(c.Name, true, "")
				continue
			}
			record(c.Name, false, err.Error())
			if h.logger != nil {
				h.logger.WarnContext(ctx, "readiness check failed",
					slog.String("check", c.Name),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if report != nil {
		status.RunID = report.RunID
		if !report.StartedAt.IsZero() {
			started := report.StartedAt
			status.LastRun = &started
		}
		for _, r := range report.Results {
			record(r.Provider, r.Success(), r.Detail)
		}
	}

	if len(status.Checks) == 0 {
		status.Checks = nil
	}
	return status
}
