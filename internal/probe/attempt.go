package probe

import (
	"context"
	"fmt"
	"strings"
)

// Attempt is one step of a fallback sequence.
type Attempt struct {
	Description string
	Run         func(ctx context.Context) (string, error)
	// Continue decides whether later attempts run after this one fails.
	// Nil means always continue.
	Continue func(err error) bool
}

// AttemptsError collects the failures of an exhausted fallback sequence.
// errors.Is/As see the first attempt's error first.
type AttemptsError struct {
	Descriptions []string
	Errs         []error
}

func (e *AttemptsError) Error() string {
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = fmt.Sprintf("%s: %v", e.Descriptions[i], err)
	}
	return strings.Join(parts, "; ")
}

func (e *AttemptsError) Unwrap() []error { return e.Errs }

// FirstSuccess runs attempts in order and returns the detail of the first
// one that succeeds. Attempts never run concurrently. A single failure is
// returned unwrapped; several are returned as an *AttemptsError.
func FirstSuccess(ctx context.Context, attempts []Attempt) (string, error) {
	ae := &AttemptsError{}
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			ae.Descriptions = append(ae.Descriptions, a.Description)
			ae.Errs = append(ae.Errs, err)
			break
		}
		detail, err := a.Run(ctx)
		if err == nil {
			return detail, nil
		}
		ae.Descriptions = append(ae.Descriptions, a.Description)
		ae.Errs = append(ae.Errs, err)
		if a.Continue != nil && !a.Continue(err) {
			break
		}
	}
	switch len(ae.Errs) {
	case 0:
		return "", fmt.Errorf("no attempts configured")
	case 1:
		return "", ae.Errs[0]
	}
	return "", ae
}
