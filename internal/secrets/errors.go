package secrets

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSecrets is returned when neither the environment nor the secrets file supplied anything.
	ErrNoSecrets = errors.New("no secrets available")
	// ErrMissingRequired is returned when a required secret did not resolve.
	ErrMissingRequired = errors.New("missing required secrets")
)

// ContextError is a fatal resolution failure. Its message carries remediation
// steps for the deployment context it was raised in.
type ContextError struct {
	Err         error
	Context     DeploymentContext
	Missing     []Spec // Required specs that did not resolve or decoded blank.
	SecretsFile string
	EnvVars     []string // Variables the operator can set instead.
}

func (e *ContextError) Error() string {
	var b strings.Builder
	if errors.Is(e.Err, ErrMissingRequired) {
		b.WriteString("secret validation failed: missing required secrets: ")
		names := make([]string, 0, len(e.Missing))
		for _, s := range e.Missing {
			names = append(names, fmt.Sprintf("%s (%s)", s.Key, s.EnvVar))
		}
		b.WriteString(strings.Join(names, ", "))
	} else {
		b.WriteString(e.Err.Error())
	}
	b.WriteString("\n")
	b.WriteString(e.Remediation())
	return b.String()
}

func (e *ContextError) Unwrap() error { return e.Err }

// Remediation returns the operator-facing next steps for the context.
func (e *ContextError) Remediation() string {
	var b strings.Builder
	switch e.Context {
	case ContextDev:
		b.WriteString("For dev environment:\n")
		fmt.Fprintf(&b, "  - Ensure %s exists with base64-encoded values\n", e.SecretsFile)
		fmt.Fprintf(&b, "  - Or set environment variables: %s", strings.Join(e.EnvVars, ", "))
	default:
		b.WriteString("For GitHub Actions:\n")
		if errors.Is(e.Err, ErrNoSecrets) {
			b.WriteString("  - Configure repository secrets\n")
		} else {
			b.WriteString("  - Ensure all required secrets are configured in GitHub repository settings\n")
		}
		b.WriteString("  - Secrets should be base64-encoded")
	}
	return b.String()
}
