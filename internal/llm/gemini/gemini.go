// Package gemini sends minimal generateContent requests to the Google
// Generative Language API.
package gemini

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jkaninda/credcheck/internal/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client implements llm.Provider for Gemini.
type Client struct {
	model     string
	transport llm.Transport
	logger    *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.transport.BaseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport.HTTPClient = hc }
}

// NewClient creates a client that sends apiKey in the x-goog-api-key header.
func NewClient(apiKey, model string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		model:     model,
		transport: llm.Transport{BaseURL: defaultBaseURL, Header: http.Header{"X-Goog-Api-Key": {apiKey}}},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "gemini" }

// SendMessage calls models/{model}:generateContent.
func (c *Client) SendMessage(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	var out generateResponse
	if err := c.transport.PostJSON(ctx, "/v1beta/models/"+model+":generateContent", newGenerateRequest(req), &out); err != nil {
		c.logger.DebugContext(ctx, "generateContent failed",
			slog.String("model", model),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	resp := out.toResponse()
	resp.Model = model
	c.logger.DebugContext(ctx, "generateContent succeeded",
		slog.String("model", model),
		slog.Int("output_tokens", resp.Usage.OutputTokens),
	)
	return resp, nil
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generation_config,omitempty"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

func newGenerateRequest(req *llm.Request) generateRequest {
	var out generateRequest
	for _, m := range req.Messages {
		out.Contents = append(out.Contents, content{Role: string(m.Role), Parts: []part{{Text: m.Content}}})
	}
	if req.MaxTokens > 0 {
		out.GenerationConfig = &generationConfig{MaxOutputTokens: req.MaxTokens}
	}
	return out
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (r *generateResponse) toResponse() *llm.Response {
	resp := &llm.Response{
		Usage: llm.Usage{
			InputTokens:  r.UsageMetadata.PromptTokenCount,
			OutputTokens: r.UsageMetadata.CandidatesTokenCount,
		},
	}
	if len(r.Candidates) > 0 {
		for _, p := range r.Candidates[0].Content.Parts {
			resp.Content += p.Text
		}
		resp.StopReason = r.Candidates[0].FinishReason
	}
	return resp
}
