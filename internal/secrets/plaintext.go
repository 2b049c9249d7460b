package secrets

import "strings"

// PlaintextFunc reports whether a raw value already looks decoded.
// These are format sniffs, not proofs: a short plaintext value that happens
// to be valid base64 of valid UTF-8 is still decoded.
type PlaintextFunc func(raw string) bool

func plainGitHubToken(raw string) bool {
	return strings.HasPrefix(raw, "ghp_") || strings.HasPrefix(raw, "github_pat_")
}

func plainTerraformToken(raw string) bool {
	return strings.Contains(raw, ".atlasv1.")
}

func plainOpenAIKey(raw string) bool {
	return strings.HasPrefix(raw, "sk-")
}

func plainAnthropicKey(raw string) bool {
	return strings.HasPrefix(raw, "sk-ant-")
}

// Google keys are short and never padded.
func plainGoogleKey(raw string) bool {
	return !strings.Contains(raw, "=") && len(raw) < 100
}

func plainUsername(raw string) bool {
	return !strings.Contains(raw, "=")
}
