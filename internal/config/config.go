// Package config handles loading and validating credcheck configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/jkaninda/credcheck/internal/secrets"
)

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()
}

// Providers lists every probe provider in registration order.
var Providers = []string{"openai", "gemini", "anthropic", "grok", "github", "terraform", "dockerhub", "pypi"}

// Config is the root configuration for credcheck.
type Config struct {
	LogLevel      string               `json:"log_level,omitempty" yaml:"log_level,omitempty"`         // "debug", "info" (default), "warn", "error".
	LogFormat     string               `json:"log_format,omitempty" yaml:"log_format,omitempty"`       // "text" (default) or "json".
	Secrets       *SecretsConfig       `json:"secrets,omitempty" yaml:"secrets,omitempty"`             // nil = defaults
	Probes        *ProbesConfig        `json:"probes,omitempty" yaml:"probes,omitempty"`               // nil = all providers, default timeouts
	Observability *ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"` // nil = observability disabled
	Serve         *ServeConfig         `json:"serve,omitempty" yaml:"serve,omitempty"`                 // nil = defaults
}

// SecretsConfig configures where secrets are read from and how they are exported.
type SecretsConfig struct {
	File        string `json:"file,omitempty" yaml:"file,omitempty"`                 // Fallback secrets file. Default: /run/secrets.yaml
	DevMarker   string `json:"dev_marker,omitempty" yaml:"dev_marker,omitempty"`     // Path whose presence marks a dev container. Default: /workspace/docker/dev
	ExportStyle string `json:"export_style,omitempty" yaml:"export_style,omitempty"` // "double" (default), "single" or "dotenv".
}

// SecretsFile returns the fallback file path.
func (s *SecretsConfig) SecretsFile() string {
	if s != nil && s.File != "" {
		return s.File
	}
	return secrets.DefaultSecretsFile
}

// DevMarkerPath returns the dev marker path.
func (s *SecretsConfig) DevMarkerPath() string {
	if s != nil && s.DevMarker != "" {
		return s.DevMarker
	}
	return secrets.DefaultDevMarker
}

// Style returns the export quoting style.
func (s *SecretsConfig) Style() string {
	if s != nil && s.ExportStyle != "" {
		return s.ExportStyle
	}
	return "double"
}

// ProbesConfig configures the connectivity probes.
type ProbesConfig struct {
	Workers   int               `json:"concurrency,omitempty" yaml:"concurrency,omitempty"` // Default: 4
	Timeouts  map[string]int    `json:"timeouts,omitempty" yaml:"timeouts,omitempty"`       // Seconds per provider. Env vars take precedence.
	Endpoints map[string]string `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`     // Base URL overrides per provider.
	Disabled  []string          `json:"disabled,omitempty" yaml:"disabled,omitempty"`       // Providers never registered.
}

// timeoutDefault maps a provider to its override variable and default seconds.
var timeoutDefault = map[string]struct {
	envVar  string
	seconds int
}{
	"openai":    {"API_TIMEOUT", 10},
	"gemini":    {"API_TIMEOUT", 10},
	"anthropic": {"API_TIMEOUT", 10},
	"grok":      {"GROK_TIMEOUT", 15},
	"github":    {"GITHUB_TIMEOUT", 15},
	"terraform": {"TERRAFORM_TIMEOUT", 30},
	"dockerhub": {"DOCKERHUB_TIMEOUT", 15},
	"pypi":      {"PYPI_TIMEOUT", 15},
}

// Concurrency returns the probe worker limit. Default: 4.
func (p *ProbesConfig) Concurrency() int {
	if p != nil && p.Workers > 0 {
		return p.Workers
	}
	return 4
}

// Timeout returns the hard deadline for provider. A positive integer in the
// provider's env var wins, then probes.timeouts, then the built-in default.
func (p *ProbesConfig) Timeout(provider string, lookup func(string) (string, bool)) time.Duration {
	def, ok := timeoutDefault[provider]
	if !ok {
		def.seconds = 15
	}
	if def.envVar != "" && lookup != nil {
		if raw, ok := lookup(def.envVar); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
				return time.Duration(n) * time.Second
			}
		}
	}
	if p != nil {
		if n := p.Timeouts[provider]; n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def.seconds) * time.Second
}

// Endpoint returns the base URL override for provider, or "".
func (p *ProbesConfig) Endpoint(provider string) string {
	if p == nil {
		return ""
	}
	return p.Endpoints[provider]
}

// Enabled reports whether provider is not listed in probes.disabled.
func (p *ProbesConfig) Enabled(provider string) bool {
	return p == nil || !slices.Contains(p.Disabled, provider)
}

// ObservabilityConfig configures metrics and tracing.
// When nil, all observability features are disabled with zero overhead.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Tracing *TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"` // Default: "/metrics"
}

// MetricsPath returns the exposition path.
func (m *MetricsConfig) MetricsPath() string {
	if m != nil && m.Path != "" {
		return m.Path
	}
	return "/metrics"
}

// TracingConfig configures OpenTelemetry distributed tracing.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string  `json:"protocol" yaml:"protocol"`         // "grpc" or "http". Default: "grpc"
	ServiceName string  `json:"service_name" yaml:"service_name"` // Default: "credcheck"
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`   // 0.0–1.0. Default: 1.0
	Insecure    bool    `json:"insecure" yaml:"insecure"`         // Skip TLS for dev
}

// Service returns the OTel service name.
func (t *TracingConfig) Service() string {
	if t != nil && t.ServiceName != "" {
		return t.ServiceName
	}
	return "credcheck"
}

// Ratio returns the trace sampling ratio.
func (t *TracingConfig) Ratio() float64 {
	if t != nil && t.SampleRate > 0 {
		return t.SampleRate
	}
	return 1.0
}

// ServeConfig configures watch mode.
type ServeConfig struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"` // Default: ":9090"
	Cron       string `json:"schedule,omitempty" yaml:"schedule,omitempty"`       // Cron expression or descriptor. Default: "@every 5m"
}

// Addr returns the listen address.
func (s *ServeConfig) Addr() string {
	if s != nil && s.ListenAddr != "" {
		return s.ListenAddr
	}
	return ":9090"
}

// Schedule returns the probe schedule.
func (s *ServeConfig) Schedule() string {
	if s != nil && s.Cron != "" {
		return s.Cron
	}
	return "@every 5m"
}

// Default returns a Config with every section at its defaults.
func Default() *Config {
	return &Config{}
}

// DefaultConfigPath returns the default config file path (~/.credcheck/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".credcheck", "config.yaml")
}

// Load reads a JSON or YAML config file and returns a validated Config.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	// Expand ~ in config path.
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}

	var cfg Config
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Default(), nil
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", resolved, err)
	}

	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config %s: %w", resolved, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config %s: %w", resolved, err)
		}
	}

	if cfg.Secrets != nil && cfg.Secrets.File != "" {
		if p, err := resolvePath(cfg.Secrets.File); err == nil {
			cfg.Secrets.File = p
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	switch c.Secrets.Style() {
	case "double", "single", "dotenv":
	default:
		return fmt.Errorf("secrets.export_style %q is not one of double, single, dotenv", c.Secrets.Style())
	}
	if p := c.Probes; p != nil {
		if p.Workers < 0 {
			return fmt.Errorf("probes.concurrency must not be negative")
		}
		for _, name := range p.Disabled {
			if !slices.Contains(Providers, name) {
				return fmt.Errorf("probes.disabled: unknown provider %q", name)
			}
		}
		for name, secs := range p.Timeouts {
			if !slices.Contains(Providers, name) {
				return fmt.Errorf("probes.timeouts: unknown provider %q", name)
			}
			if secs < 0 {
				return fmt.Errorf("probes.timeouts.%s must not be negative", name)
			}
		}
		for name := range p.Endpoints {
			if !slices.Contains(Providers, name) {
				return fmt.Errorf("probes.endpoints: unknown provider %q", name)
			}
		}
	}
	if o := c.Observability; o != nil && o.Tracing != nil && o.Tracing.Enabled {
		if o.Tracing.Endpoint == "" {
			return fmt.Errorf("observability.tracing.endpoint is required when tracing is enabled")
		}
		switch o.Tracing.Protocol {
		case "", "grpc", "http":
		default:
			return fmt.Errorf("observability.tracing.protocol must be \"grpc\" or \"http\"")
		}
		if o.Tracing.SampleRate < 0 || o.Tracing.SampleRate > 1 {
			return fmt.Errorf("observability.tracing.sample_rate must be between 0 and 1")
		}
	}
	if _, err := ParseSchedule(c.Serve.Schedule()); err != nil {
		return fmt.Errorf("serve.schedule: %w", err)
	}
	if err := ValidateListenAddr(c.Serve.Addr()); err != nil {
		return fmt.Errorf("serve.listen_addr: %w", err)
	}
	return nil
}

// ValidateListenAddr accepts host:port with a port in 1-65535. The host may
// be empty.
func ValidateListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid listen address %q: port must be between 1 and 65535", addr)
	}
	return nil
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a five-field cron expression or an @-descriptor.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched, nil
}
