package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Summary describes what a validation pass did.
type Summary struct {
	Source      Source
	Loaded      []string // Variables written to the environment, in order.
	Empty       []string // Logical keys whose decoded value was blank.
	Absent      []string // Optional logical keys that did not resolve.
	AIAvailable int      // AI-capability secrets loaded.
	AIFound     int      // AI-capability secrets present in any form, blank included.
}

// ValidateAndExport classifies resolved secrets and writes every loaded value
// into env under its variable name. The Terraform token is also written to
// TF_TOKEN_app_terraform_io.
//
// A required secret that is missing, or blank once decoded, returns a
// *ContextError wrapping ErrMissingRequired; loaded values have already been
// exported by then. Blank optional values and the absence of AI keys are
// only logged.
func ValidateAndExport(ctx context.Context, env Environment, res *Resolution, logger *slog.Logger) (*Summary, error) {
	sum := &Summary{Source: res.Source}
	var missing []Spec

	for _, rs := range res.Secrets {
		spec := rs.Spec
		if !rs.Found() {
			if spec.Required {
				missing = append(missing, spec)
			} else {
				sum.Absent = append(sum.Absent, spec.Key)
			}
			continue
		}
		if spec.Category == CategoryAI {
			sum.AIFound++
		}
		if strings.TrimSpace(rs.Value) == "" {
			sum.Empty = append(sum.Empty, spec.Key)
			if spec.Required {
				missing = append(missing, spec)
			}
			continue
		}

		if err := env.Set(spec.EnvVar, rs.Value); err != nil {
			return sum, fmt.Errorf("exporting %s: %w", spec.EnvVar, err)
		}
		sum.Loaded = append(sum.Loaded, spec.EnvVar)
		logger.InfoContext(ctx, "secret loaded",
			slog.String("var", spec.EnvVar),
			slog.String("source", string(rs.Source)),
		)

		if spec.Key == "TF_API_KEY" {
			if err := env.Set(TerraformCloudVar, rs.Value); err != nil {
				return sum, fmt.Errorf("exporting %s: %w", TerraformCloudVar, err)
			}
			sum.Loaded = append(sum.Loaded, TerraformCloudVar)
		}
		if spec.Category == CategoryAI {
			sum.AIAvailable++
		}
	}

	if len(sum.Empty) > 0 {
		logger.WarnContext(ctx, "empty secrets found", slog.String("keys", strings.Join(sum.Empty, ", ")))
	}

	switch {
	case sum.AIAvailable > 0:
		logger.InfoContext(ctx, "AI capabilities enabled", slog.Int("api_keys", sum.AIAvailable))
	case sum.AIFound > 0:
		logger.WarnContext(ctx, "AI keys present but empty, AI features disabled")
	default:
		logger.WarnContext(ctx, "no AI API keys available, at least one is recommended for full functionality")
	}

	if len(sum.Loaded) > 0 {
		logger.InfoContext(ctx, "secrets loaded",
			slog.Int("count", len(sum.Loaded)),
			slog.String("source", string(res.Source)),
		)
	}

	if len(missing) > 0 {
		return sum, &ContextError{
			Err:         ErrMissingRequired,
			Context:     res.Context,
			Missing:     missing,
			SecretsFile: res.SecretsFile,
			EnvVars:     envVarNames(specsOf(res.Secrets)),
		}
	}
	return sum, nil
}

func specsOf(rs []Resolved) []Spec {
	specs := make([]Spec, 0, len(rs))
	for _, r := range rs {
		specs = append(specs, r.Spec)
	}
	return specs
}
