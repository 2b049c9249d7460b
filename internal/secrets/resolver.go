package secrets

import (
	"context"
	"log/slog"
)

// Resolver determines, per Spec, whether a usable value exists in the
// environment or in the dev-only secrets file.
type Resolver struct {
	env    Environment
	specs  []Spec
	paths  Paths
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSpecs replaces the default secret table.
func WithSpecs(specs []Spec) ResolverOption {
	return func(r *Resolver) { r.specs = specs }
}

// WithPaths overrides the secrets file and dev marker locations.
func WithPaths(p Paths) ResolverOption {
	return func(r *Resolver) { r.paths = p }
}

// NewResolver creates a Resolver over env using DefaultSpecs.
func NewResolver(env Environment, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		env:    env,
		specs:  DefaultSpecs(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Specs returns the table the resolver works from.
func (r *Resolver) Specs() []Spec { return r.specs }

// Resolve produces one Resolved per Spec, in table order.
// Environment values take priority; the secrets file is consulted only when
// no spec has an environment value and the dev context is detected.
// A *ContextError wrapping ErrNoSecrets is returned when nothing resolves.
func (r *Resolver) Resolve(ctx context.Context) (*Resolution, error) {
	dc := DetectContext(r.env, r.paths)

	resolved := r.ResolveEnvironment()
	if anyFound(resolved) {
		r.logger.InfoContext(ctx, "found secrets in environment variables")
		return &Resolution{
			Secrets:     resolved,
			Source:      SourceEnvironment,
			Context:     dc,
			SecretsFile: r.paths.secretsFile(),
		}, nil
	}

	if dc == ContextDev {
		path := r.paths.secretsFile()
		r.logger.InfoContext(ctx, "no environment secrets found, checking secrets file",
			slog.String("path", path),
		)
		vals, err := ReadFile(path)
		if err != nil {
			r.logger.WarnContext(ctx, "secrets file unusable",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		if len(vals) > 0 {
			resolved = r.ResolveFile(vals)
			if anyFound(resolved) {
				r.logger.InfoContext(ctx, "loading secrets from file", slog.String("path", path))
				return &Resolution{
					Secrets:     resolved,
					Source:      SourceFile,
					Context:     dc,
					SecretsFile: path,
				}, nil
			}
		}
		r.logger.WarnContext(ctx, "no secrets found in file", slog.String("path", path))
	}

	return nil, &ContextError{
		Err:         ErrNoSecrets,
		Context:     dc,
		SecretsFile: r.paths.secretsFile(),
		EnvVars:     envVarNames(r.specs),
	}
}

// ResolveEnvironment looks each Spec up in the environment. Values the
// spec's plaintext predicate accepts are used as-is; everything else is decoded.
func (r *Resolver) ResolveEnvironment() []Resolved {
	out := make([]Resolved, 0, len(r.specs))
	for _, spec := range r.specs {
		res := Resolved{Spec: spec, Source: SourceAbsent}
		for _, name := range spec.Names() {
			raw, ok := r.env.Lookup(name)
			if !ok {
				continue
			}
			res.Raw = raw
			res.EnvName = name
			res.Source = SourceEnvironment
			if spec.Plaintext != nil && spec.Plaintext(raw) {
				res.Value = raw
			} else {
				res.Value = Decode(raw)
			}
			break
		}
		out = append(out, res)
	}
	return out
}

// ResolveFile maps file entries onto the spec table. Entries are matched by
// logical key first, then by variable name, and are always decoded.
func (r *Resolver) ResolveFile(vals map[string]string) []Resolved {
	out := make([]Resolved, 0, len(r.specs))
	for _, spec := range r.specs {
		res := Resolved{Spec: spec, Source: SourceAbsent}
		for _, key := range append([]string{spec.Key}, spec.Names()...) {
			raw, ok := vals[key]
			if !ok || raw == "" {
				continue
			}
			res.Raw = raw
			res.EnvName = key
			res.Source = SourceFile
			res.Value = Decode(raw)
			break
		}
		out = append(out, res)
	}
	return out
}

func anyFound(rs []Resolved) bool {
	for _, r := range rs {
		if r.Found() {
			return true
		}
	}
	return false
}

func envVarNames(specs []Spec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.EnvVar)
	}
	return names
}
