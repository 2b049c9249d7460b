// Package probe runs one connectivity check per external API, each under its
// own hard deadline, and aggregates the outcomes into an ordered report.
// Probe failures are diagnostics: nothing in this package returns an error
// for a failed check.
package probe

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a single probe.
type Status int

const (
	StatusNotRun Status = iota
	StatusRunning
	StatusSuccess
	StatusFailure
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusNotRun:
		return "not_run"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusTimeout:
		return "timeout"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Credential names a variable a checker needs, with accepted aliases.
type Credential struct {
	Name    string
	Aliases []string
}

// Credentials maps Credential.Name to its resolved value.
type Credentials map[string]string

// Checker performs one minimal authenticated request against a provider.
// Check returns a short success detail, or an error the harness classifies.
type Checker interface {
	// Name returns the provider identifier (e.g. "openai").
	Name() string
	// Credentials lists the variables Check needs. All must be set.
	Credentials() []Credential
	Check(ctx context.Context, creds Credentials) (string, error)
}

// Result is the outcome of one probe.
type Result struct {
	Provider string
	Status   Status
	Detail   string
	Elapsed  time.Duration
}

// Success reports whether the probe passed.
func (r Result) Success() bool { return r.Status == StatusSuccess }

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Provider       string  `json:"provider"`
		Status         Status  `json:"status"`
		Success        bool    `json:"success"`
		Detail         string  `json:"detail"`
		ElapsedSeconds float64 `json:"elapsed_seconds"`
	}{r.Provider, r.Status, r.Success(), r.Detail, r.Elapsed.Seconds()})
}

// Report holds one Result per registered checker, in registration order.
type Report struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"-"`
	Results   []Result      `json:"results"`
}

// Passed returns how many probes succeeded.
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Success() {
			n++
		}
	}
	return n
}

// AllPassed reports whether every probe succeeded.
func (r *Report) AllPassed() bool { return r.Passed() == len(r.Results) }
