package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jkaninda/credcheck/internal/llm"
	"github.com/jkaninda/credcheck/internal/llm/anthropic"
	"github.com/jkaninda/credcheck/internal/llm/gemini"
	"github.com/jkaninda/credcheck/internal/llm/openai"
)

const (
	probePrompt    = "Hello, are you working?"
	probeMaxTokens = 10

	OpenAIModel    = "gpt-3.5-turbo"
	GeminiModel    = "gemini-2.0-flash"
	AnthropicModel = "claude-3-haiku-20240307"
)

// GrokModels are tried in order until one is served.
var GrokModels = []string{"grok-2-1212", "grok-2", "grok-1", "grok-latest"}

// CheckerOptions carries transport settings shared by all checkers.
type CheckerOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Wrap, when set, decorates every LLM provider a checker builds.
	Wrap func(llm.Provider) llm.Provider
}

func (o CheckerOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// llmChecker sends one tiny completion through an llm.Provider built per call.
type llmChecker struct {
	name    string
	envVar  string
	aliases []string
	model   string
	newProv func(apiKey string) llm.Provider
	wrap    func(llm.Provider) llm.Provider
	models  []string // Tried in order as per-request overrides when set.
}

func (c *llmChecker) Name() string { return c.name }

func (c *llmChecker) Credentials() []Credential {
	return []Credential{{Name: c.envVar, Aliases: c.aliases}}
}

func (c *llmChecker) Check(ctx context.Context, creds Credentials) (string, error) {
	prov := c.newProv(creds[c.envVar])
	if c.wrap != nil {
		prov = c.wrap(prov)
	}
	if len(c.models) == 0 {
		return ping(ctx, prov, "", c.model)
	}

	attempts := make([]Attempt, len(c.models))
	for i, model := range c.models {
		attempts[i] = Attempt{
			Description: "model " + model,
			Run:         func(ctx context.Context) (string, error) { return ping(ctx, prov, model, model) },
			Continue:    isModelNotFound,
		}
	}
	return FirstSuccess(ctx, attempts)
}

func ping(ctx context.Context, prov llm.Provider, override, label string) (string, error) {
	resp, err := prov.SendMessage(ctx, &llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: probePrompt}},
		MaxTokens: probeMaxTokens,
		Model:     override,
	})
	if err != nil {
		return "", err
	}
	if resp.Model == "" {
		resp.Model = label
	}
	return fmt.Sprintf("responded (%s)", resp.Model), nil
}

// isModelNotFound reports whether err means the requested model is not served.
func isModelNotFound(err error) bool {
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusNotFound {
		return true
	}
	body := strings.ToLower(apiErr.Body)
	return strings.Contains(body, "model") &&
		(strings.Contains(body, "not found") || strings.Contains(body, "does not exist"))
}

// NewOpenAIChecker probes the Chat Completions API with OPENAI_API_KEY.
func NewOpenAIChecker(opts CheckerOptions) Checker {
	return &llmChecker{
		name:   "openai",
		envVar: "OPENAI_API_KEY",
		model:  OpenAIModel,
		wrap:   opts.Wrap,
		newProv: func(key string) llm.Provider {
			return openai.NewClient(key, OpenAIModel, opts.logger(), openaiOpts(opts)...)
		},
	}
}

// NewGrokChecker probes the xAI API with GROK_API_KEY, falling back through
// GrokModels while the API reports an unknown model.
func NewGrokChecker(opts CheckerOptions) Checker {
	if opts.BaseURL == "" {
		opts.BaseURL = openai.XAIBaseURL
	}
	return &llmChecker{
		name:   "grok",
		envVar: "GROK_API_KEY",
		model:  GrokModels[0],
		wrap:   opts.Wrap,
		newProv: func(key string) llm.Provider {
			o := append(openaiOpts(opts), openai.WithName("grok"))
			return openai.NewClient(key, GrokModels[0], opts.logger(), o...)
		},
		models: GrokModels,
	}
}

func openaiOpts(opts CheckerOptions) []openai.Option {
	var o []openai.Option
	if opts.BaseURL != "" {
		o = append(o, openai.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		o = append(o, openai.WithHTTPClient(opts.HTTPClient))
	}
	return o
}

// NewGeminiChecker probes generateContent with GOOGLE_API_KEY or GEMINI_API_KEY.
func NewGeminiChecker(opts CheckerOptions) Checker {
	return &llmChecker{
		name:    "gemini",
		envVar:  "GOOGLE_API_KEY",
		aliases: []string{"GEMINI_API_KEY"},
		model:   GeminiModel,
		wrap:    opts.Wrap,
		newProv: func(key string) llm.Provider {
			var o []gemini.Option
			if opts.BaseURL != "" {
				o = append(o, gemini.WithBaseURL(opts.BaseURL))
			}
			if opts.HTTPClient != nil {
				o = append(o, gemini.WithHTTPClient(opts.HTTPClient))
			}
			return gemini.NewClient(key, GeminiModel, opts.logger(), o...)
		},
	}
}

// NewAnthropicChecker probes the Messages API with ANTHROPIC_API_KEY.
func NewAnthropicChecker(opts CheckerOptions) Checker {
	return &llmChecker{
		name:   "anthropic",
		envVar: "ANTHROPIC_API_KEY",
		model:  AnthropicModel,
		wrap:   opts.Wrap,
		newProv: func(key string) llm.Provider {
			var o []anthropic.Option
			if opts.BaseURL != "" {
				o = append(o, anthropic.WithBaseURL(opts.BaseURL))
			}
			if opts.HTTPClient != nil {
				o = append(o, anthropic.WithHTTPClient(opts.HTTPClient))
			}
			return anthropic.NewClient(key, AnthropicModel, opts.logger(), o...)
		},
	}
}
