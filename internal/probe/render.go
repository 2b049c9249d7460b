package probe

import (
	"fmt"
	"io"
	"time"
)

var displayNames = map[string]string{
	"openai":    "OpenAI",
	"gemini":    "Gemini",
	"anthropic": "Anthropic",
	"grok":      "Grok",
	"github":    "GitHub",
	"terraform": "Terraform Cloud",
	"dockerhub": "Docker Hub",
	"pypi":      "PyPI",
}

// DisplayName returns the human-readable name for a provider id.
func DisplayName(provider string) string {
	if n, ok := displayNames[provider]; ok {
		return n
	}
	return provider
}

// WriteReport prints one status line per result followed by a summary.
// With symbols false, plain [OK]/[FAIL] tags replace the emoji.
func WriteReport(w io.Writer, report *Report, symbols bool) error {
	for _, r := range report.Results {
		line := fmt.Sprintf("%s %s API: %s", tag(r, symbols), DisplayName(r.Provider), r.Detail)
		if r.Elapsed > 0 {
			line += fmt.Sprintf(" (%s)", r.Elapsed.Round(time.Millisecond))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	passed, total := report.Passed(), len(report.Results)
	var summary string
	switch {
	case total == 0:
		summary = "No APIs were probed."
	case passed == total:
		summary = tagFor(true, symbols) + " All APIs are working correctly!"
	default:
		summary = fmt.Sprintf("%s Some APIs failed (%d/%d passed)", tagFor(false, symbols), passed, total)
	}
	_, err := fmt.Fprintf(w, "\n%s\n", summary)
	return err
}

func tag(r Result, symbols bool) string {
	if r.Status == StatusTimeout && !symbols {
		return "[TIMEOUT]"
	}
	return tagFor(r.Success(), symbols)
}

func tagFor(ok, symbols bool) string {
	switch {
	case ok && symbols:
		return "✅"
	case symbols:
		return "❌"
	case ok:
		return "[OK]"
	}
	return "[FAIL]"
}
