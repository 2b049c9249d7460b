package probe

import (
	"fmt"
	"slices"

	"github.com/jkaninda/credcheck/internal/config"
	"github.com/jkaninda/credcheck/internal/secrets"
)

var constructors = map[string]func(CheckerOptions) Checker{
	"openai":    NewOpenAIChecker,
	"gemini":    NewGeminiChecker,
	"anthropic": NewAnthropicChecker,
	"grok":      NewGrokChecker,
	"github":    NewGitHubChecker,
	"terraform": NewTerraformChecker,
	"dockerhub": NewDockerHubChecker,
	"pypi":      NewPyPIChecker,
}

// DefaultRegistrations builds the standard checker set in config.Providers
// order. Providers disabled in cfg, or absent from only when only is
// non-empty, are left out. Timeouts come from cfg.Timeout with env as the
// override source.
func DefaultRegistrations(cfg *config.ProbesConfig, env secrets.Environment, base CheckerOptions, only []string) ([]Registration, error) {
	for _, name := range only {
		if _, ok := constructors[name]; !ok {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}

	var regs []Registration
	for _, name := range config.Providers {
		if !cfg.Enabled(name) {
			continue
		}
		if len(only) > 0 && !slices.Contains(only, name) {
			continue
		}
		opts := base
		opts.BaseURL = cfg.Endpoint(name)
		regs = append(regs, Registration{
			Checker: constructors[name](opts),
			Timeout: cfg.Timeout(name, env.Lookup),
		})
	}
	return regs, nil
}
