// Package openai sends minimal Chat Completions requests. xAI serves the same
// API, so Grok uses this client with XAIBaseURL.
package openai

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jkaninda/credcheck/internal/llm"
)

const (
	defaultBaseURL  = "https://api.openai.com"
	completionsPath = "/v1/chat/completions"

	// XAIBaseURL is the OpenAI-compatible xAI endpoint.
	XAIBaseURL = "https://api.x.ai"
)

// Client implements llm.Provider for any Chat Completions endpoint.
type Client struct {
	name      string
	model     string
	transport llm.Transport
	logger    *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. XAIBaseURL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.transport.BaseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport.HTTPClient = hc }
}

// WithName overrides the provider name reported by Name (e.g. "grok").
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

// NewClient creates a client that authenticates with a Bearer key. An empty
// key sends no Authorization header.
func NewClient(apiKey, model string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		name:      "openai",
		model:     model,
		transport: llm.Transport{BaseURL: defaultBaseURL, Header: http.Header{}},
		logger:    logger,
	}
	if apiKey != "" {
		c.transport.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return c.name }

// SendMessage posts one chat completion.
func (c *Client) SendMessage(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	body := newChatRequest(c.model, req)

	var out chatResponse
	if err := c.transport.PostJSON(ctx, completionsPath, body, &out); err != nil {
		c.logger.DebugContext(ctx, "chat completion failed",
			slog.String("provider", c.name),
			slog.String("model", body.Model),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	resp := out.toResponse()
	if resp.Model == "" {
		resp.Model = body.Model
	}
	c.logger.DebugContext(ctx, "chat completion succeeded",
		slog.String("provider", c.name),
		slog.String("model", resp.Model),
		slog.Int("output_tokens", resp.Usage.OutputTokens),
	)
	return resp, nil
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func newChatRequest(model string, req *llm.Request) chatRequest {
	if req.Model != "" {
		model = req.Model
	}
	out := chatRequest{Model: model, MaxTokens: req.MaxTokens}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (r *chatResponse) toResponse() *llm.Response {
	resp := &llm.Response{
		Model: r.Model,
		Usage: llm.Usage{InputTokens: r.Usage.PromptTokens, OutputTokens: r.Usage.CompletionTokens},
	}
	if len(r.Choices) > 0 {
		resp.Content = r.Choices[0].Message.Content
		resp.StopReason = r.Choices[0].FinishReason
	}
	return resp
}
