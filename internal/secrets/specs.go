package secrets

// Category classifies what a secret is needed for.
type Category string

const (
	CategoryCore Category = "core"
	CategoryAI   Category = "ai_capability"
)

// TerraformCloudVar is the second name the Terraform CLI reads the
// app.terraform.io token from.
const TerraformCloudVar = "TF_TOKEN_app_terraform_io"

// Spec defines how to resolve one logical secret.
type Spec struct {
	// Key is the logical name, also used as the key in the secrets file.
	Key string
	// EnvVar is the variable the secret is read from and exported to.
	EnvVar string
	// Alternates are checked in order when EnvVar is not set.
	Alternates []string
	Required   bool
	Category   Category
	// Plaintext reports whether a raw environment value is already decoded.
	// Nil means environment values are always decoded.
	Plaintext PlaintextFunc
	// Desc is shown in remediation messages.
	Desc string
}

// Names returns EnvVar followed by Alternates.
func (s Spec) Names() []string {
	return append([]string{s.EnvVar}, s.Alternates...)
}

// DefaultSpecs returns the secrets a workspace container expects.
// Adding a new secret is one entry here.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Key:      "DOCKERHUB_API_KEY",
			EnvVar:   "DOCKERHUB_API_KEY",
			Category: CategoryCore,
			Desc:     "Docker Hub access token",
		},
		{
			Key:       "DOCKERHUB_USERNAME",
			EnvVar:    "DOCKERHUB_USERNAME",
			Category:  CategoryCore,
			Plaintext: plainUsername,
			Desc:      "Docker Hub username",
		},
		{
			Key:        "TF_API_KEY",
			EnvVar:     "TFE_TOKEN",
			Alternates: []string{TerraformCloudVar},
			Category:   CategoryCore,
			Plaintext:  plainTerraformToken,
			Desc:       "Terraform Cloud API token",
		},
		{
			Key:      "PYPI_API_KEY",
			EnvVar:   "PYPI_API_KEY",
			Category: CategoryCore,
			Desc:     "PyPI upload token",
		},
		{
			Key:       "OPENAI_API_KEY",
			EnvVar:    "OPENAI_API_KEY",
			Category:  CategoryAI,
			Plaintext: plainOpenAIKey,
			Desc:      "OpenAI API key",
		},
		{
			Key:        "GOOGLE_API_KEY",
			EnvVar:     "GOOGLE_API_KEY",
			Alternates: []string{"GEMINI_API_KEY"},
			Category:   CategoryAI,
			Plaintext:  plainGoogleKey,
			Desc:       "Google API key for Gemini",
		},
		{
			Key:       "ANTHROPIC_API_KEY",
			EnvVar:    "ANTHROPIC_API_KEY",
			Category:  CategoryAI,
			Plaintext: plainAnthropicKey,
			Desc:      "Anthropic API key",
		},
		{
			Key:      "GROK_API_KEY",
			EnvVar:   "GROK_API_KEY",
			Category: CategoryAI,
			Desc:     "xAI Grok API key",
		},
		{
			Key:       "REPO_API_KEY",
			EnvVar:    "GITHUB_TOKEN",
			Required:  true,
			Category:  CategoryCore,
			Plaintext: plainGitHubToken,
			Desc:      "GitHub personal access token",
		},
	}
}

// ExportNames is the allow-list written to shell export scripts.
var ExportNames = []string{
	"OPENAI_API_KEY",
	"ANTHROPIC_API_KEY",
	"GOOGLE_API_KEY",
	"GROK_API_KEY",
	"GITHUB_TOKEN",
	"DOCKERHUB_API_KEY",
	"DOCKERHUB_USERNAME",
	"TFE_TOKEN",
	TerraformCloudVar,
	"PYPI_API_KEY",
}

// DecodeNames lists the variables decoded in place by DecodeInPlace.
var DecodeNames = []string{
	"LANGSMITH_API_KEY",
	"OPENAI_API_KEY",
	"ANTHROPIC_API_KEY",
	"GOOGLE_API_KEY",
	"GROK_API_KEY",
	"GITHUB_TOKEN",
	"DOCKERHUB_API_KEY",
	"DOCKERHUB_USERNAME",
	"TFE_TOKEN",
	TerraformCloudVar,
	"TF_API_KEY",
	"PYPI_API_KEY",
}
