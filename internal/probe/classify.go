package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v57/github"

	"github.com/jkaninda/credcheck/internal/llm"
)

const (
	detailNotConfigured = "credential not configured"
	maxBodyDetail       = 120
)

// HTTPError is a non-2xx response from a service API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Classify maps a checker outcome to a terminal status and a detail line.
func Classify(detail string, err error, timeout time.Duration) (Status, string) {
	if err == nil {
		return StatusSuccess, detail
	}
	if errors.Is(err, ErrDeadline) {
		return StatusTimeout, "timed out after " + formatTimeout(timeout)
	}

	suffix := ""
	var ae *AttemptsError
	if errors.As(err, &ae) {
		suffix = fmt.Sprintf(" (%d attempts failed)", len(ae.Errs))
	}

	if code, body, ok := statusOf(err); ok {
		switch code {
		case http.StatusUnauthorized:
			return StatusFailure, "authentication failed (401)" + suffix
		case http.StatusForbidden:
			return StatusFailure, "permission denied (403)" + suffix
		case http.StatusTooManyRequests:
			return StatusFailure, "rate limit exceeded (429)" + suffix
		}
		return StatusFailure, fmt.Sprintf("HTTP %d: %s", code, truncate(body)) + suffix
	}

	if errors.Is(err, context.Canceled) {
		return StatusFailure, "cancelled"
	}
	return StatusFailure, "connection failed: " + truncate(err.Error()) + suffix
}

// statusOf finds the first HTTP status carried in err's chain.
func statusOf(err error) (int, string, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode, he.Body, true
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Detail(), true
	}
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return http.StatusTooManyRequests, rle.Message, true
	}
	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		return http.StatusTooManyRequests, arle.Message, true
	}
	var gerr *github.ErrorResponse
	if errors.As(err, &gerr) && gerr.Response != nil {
		return gerr.Response.StatusCode, gerr.Message, true
	}
	return 0, "", false
}

func formatTimeout(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxBodyDetail {
		cut := maxBodyDetail
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
