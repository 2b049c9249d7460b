package probe

import (
	"context"
	"net/http"
)

const pypiBaseURL = "https://pypi.org"

type pypiChecker struct {
	opts CheckerOptions
}

// NewPyPIChecker checks registry reachability with PYPI_API_KEY attached.
// The JSON API accepts anonymous reads, so success does not prove the token
// has upload rights.
func NewPyPIChecker(opts CheckerOptions) Checker {
	if opts.BaseURL == "" {
		opts.BaseURL = pypiBaseURL
	}
	return &pypiChecker{opts: opts}
}

func (c *pypiChecker) Name() string { return "pypi" }

func (c *pypiChecker) Credentials() []Credential {
	return []Credential{{Name: "PYPI_API_KEY"}}
}

func (c *pypiChecker) Check(ctx context.Context, creds Credentials) (string, error) {
	header := http.Header{}
	header.Set("Authorization", "token "+creds["PYPI_API_KEY"])
	if _, err := getJSON(ctx, httpClient(c.opts.HTTPClient), joinURL(c.opts.BaseURL, "/pypi/pip/json"), header); err != nil {
		return "", err
	}
	return "registry reachable", nil
}
