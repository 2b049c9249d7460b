package secrets

import "os"

// DeploymentContext distinguishes where secrets are expected to come from.
type DeploymentContext string

const (
	// ContextDev may receive secrets from a mounted file.
	ContextDev DeploymentContext = "dev"
	// ContextAutomated (CI) only receives injected environment variables.
	ContextAutomated DeploymentContext = "automated"
)

const (
	DefaultSecretsFile = "/run/secrets.yaml"
	DefaultDevMarker   = "/workspace/docker/dev"

	// ModeVar is the variable hinting at the deployment mode.
	ModeVar = "ENVIRONMENT"
)

// Paths locates the files used for context detection and file fallback.
type Paths struct {
	SecretsFile string // Default: /run/secrets.yaml.
	DevMarker   string // Default: /workspace/docker/dev.
}

func (p Paths) secretsFile() string {
	if p.SecretsFile != "" {
		return p.SecretsFile
	}
	return DefaultSecretsFile
}

func (p Paths) devMarker() string {
	if p.DevMarker != "" {
		return p.DevMarker
	}
	return DefaultDevMarker
}

// DetectContext reports ContextDev when the secrets file exists, the mode
// variable equals "dev", or the dev marker path exists.
func DetectContext(env Environment, paths Paths) DeploymentContext {
	if exists(paths.secretsFile()) {
		return ContextDev
	}
	if mode, ok := env.Lookup(ModeVar); ok && mode == "dev" {
		return ContextDev
	}
	if exists(paths.devMarker()) {
		return ContextDev
	}
	return ContextAutomated
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
