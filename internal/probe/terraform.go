package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jkaninda/credcheck/internal/secrets"
)

const terraformBaseURL = "https://app.terraform.io"

type terraformChecker struct {
	opts CheckerOptions
}

// NewTerraformChecker reads account details with TFE_TOKEN or the
// Terraform CLI host token.
func NewTerraformChecker(opts CheckerOptions) Checker {
	if opts.BaseURL == "" {
		opts.BaseURL = terraformBaseURL
	}
	return &terraformChecker{opts: opts}
}

func (c *terraformChecker) Name() string { return "terraform" }

func (c *terraformChecker) Credentials() []Credential {
	return []Credential{{Name: "TFE_TOKEN", Aliases: []string{secrets.TerraformCloudVar}}}
}

func (c *terraformChecker) Check(ctx context.Context, creds Credentials) (string, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds["TFE_TOKEN"])
	header.Set("Content-Type", "application/vnd.api+json")

	body, err := getJSON(ctx, httpClient(c.opts.HTTPClient), joinURL(c.opts.BaseURL, "/api/v2/account/details"), header)
	if err != nil {
		return "", err
	}

	var account struct {
		Data struct {
			Attributes struct {
				Username string `json:"username"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return "", fmt.Errorf("parsing account details: %w", err)
	}
	if account.Data.Attributes.Username == "" {
		return "authenticated", nil
	}
	return "authenticated as " + account.Data.Attributes.Username, nil
}
