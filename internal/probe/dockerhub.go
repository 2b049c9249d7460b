package probe

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
)

const dockerHubBaseURL = "https://hub.docker.com"

type dockerHubChecker struct {
	opts CheckerOptions
}

// NewDockerHubChecker verifies DOCKERHUB_USERNAME and DOCKERHUB_API_KEY
// against the Hub REST API. A bearer attempt rejected with 401 falls back to
// basic auth, then to the user's repository listing.
func NewDockerHubChecker(opts CheckerOptions) Checker {
	if opts.BaseURL == "" {
		opts.BaseURL = dockerHubBaseURL
	}
	return &dockerHubChecker{opts: opts}
}

func (c *dockerHubChecker) Name() string { return "dockerhub" }

func (c *dockerHubChecker) Credentials() []Credential {
	return []Credential{{Name: "DOCKERHUB_USERNAME"}, {Name: "DOCKERHUB_API_KEY"}}
}

func (c *dockerHubChecker) Check(ctx context.Context, creds Credentials) (string, error) {
	user, key := creds["DOCKERHUB_USERNAME"], creds["DOCKERHUB_API_KEY"]
	userURL := joinURL(c.opts.BaseURL, "/v2/users/"+url.PathEscape(user)+"/")
	reposURL := joinURL(c.opts.BaseURL, "/v2/repositories/"+url.PathEscape(user)+"/")

	bearer := "Bearer " + key
	basic := "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+key))

	return FirstSuccess(ctx, []Attempt{
		{
			Description: "bearer user lookup",
			Run:         c.get(userURL, bearer, "authenticated as "+user),
			Continue:    isUnauthorized,
		},
		{
			Description: "basic user lookup",
			Run:         c.get(userURL, basic, "authenticated as "+user+" (basic auth)"),
		},
		{
			Description: "bearer repository listing",
			Run:         c.get(reposURL, bearer, "repositories accessible for "+user),
		},
	})
}

func (c *dockerHubChecker) get(target, auth, detail string) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		header := http.Header{}
		header.Set("Authorization", auth)
		if _, err := getJSON(ctx, httpClient(c.opts.HTTPClient), target, header); err != nil {
			return "", err
		}
		return detail, nil
	}
}

func isUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusUnauthorized
}
