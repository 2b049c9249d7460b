// Package secrets resolves, validates, and exports the credentials a
// container needs before anything else runs.
// Values arrive either as environment variables (sometimes base64-encoded,
// sometimes already plaintext) or, in development, from a mounted file.
// Nothing here stores or rotates credentials; it only normalizes what was
// already provisioned and hands it to the process environment.
package secrets

// Source records where a resolved secret came from.
type Source string

const (
	SourceEnvironment Source = "environment"
	SourceFile        Source = "file"
	SourceAbsent      Source = "absent"
)

// Resolved is a secret after source lookup and decoding.
// Raw and Value are empty when Source is SourceAbsent.
type Resolved struct {
	Spec    Spec
	Raw     string // Value as found, before decoding.
	Value   string // Plaintext ready for export.
	Source  Source
	EnvName string // Variable (or file key) the raw value was read from.
}

// Found reports whether the secret was present in any source.
func (r Resolved) Found() bool { return r.Source != SourceAbsent }

// Resolution is the outcome of one resolver pass.
type Resolution struct {
	Secrets []Resolved
	Source  Source // Source that supplied the values: environment or file.
	Context DeploymentContext
	// SecretsFile is the fallback file path, quoted in remediation messages.
	SecretsFile string
}

// Get returns the resolved secret for a logical key.
func (r *Resolution) Get(key string) (Resolved, bool) {
	if r == nil {
		return Resolved{}, false
	}
	for _, s := range r.Secrets {
		if s.Spec.Key == key {
			return s, true
		}
	}
	return Resolved{}, false
}
