package probe

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

type githubChecker struct {
	opts CheckerOptions
}

// NewGitHubChecker fetches the authenticated user with GITHUB_TOKEN.
func NewGitHubChecker(opts CheckerOptions) Checker {
	return &githubChecker{opts: opts}
}

func (c *githubChecker) Name() string { return "github" }

func (c *githubChecker) Credentials() []Credential {
	return []Credential{{Name: "GITHUB_TOKEN"}}
}

func (c *githubChecker) Check(ctx context.Context, creds Credentials) (string, error) {
	client, err := c.client(ctx, creds["GITHUB_TOKEN"])
	if err != nil {
		return "", err
	}
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", err
	}
	return "authenticated as " + user.GetLogin(), nil
}

func (c *githubChecker) client(ctx context.Context, token string) (*github.Client, error) {
	if c.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.opts.HTTPClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if c.opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(c.opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing github base url: %w", err)
		}
		client.BaseURL = base
	}
	return client, nil
}
