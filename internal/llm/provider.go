// Package llm defines the provider-agnostic interface used to send a minimal
// completion request to an LLM backend.
package llm

import (
	"context"
	"fmt"
)

// Provider is the abstraction over any LLM backend (Anthropic, OpenAI, etc.).
type Provider interface {
	// SendMessage sends a conversation to the LLM and returns its response.
	SendMessage(ctx context.Context, req *Request) (*Response, error)
	// Name returns the provider identifier (e.g. "anthropic").
	Name() string
}

// Request represents a conversation sent to the LLM.
type Request struct {
	Messages  []Message
	MaxTokens int
	Model     string // Overrides the client's model when set.
}

// Message is a single turn in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role identifies who sent a message.
type Role string

const RoleUser Role = "user"

// Response is what the LLM returns.
type Response struct {
	Content    string
	Model      string // Model that served the request.
	Usage      Usage
	StopReason string // "end_turn", "max_tokens"
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// APIError is a non-2xx response from a provider API.
type APIError struct {
	StatusCode int
	Body       string
	Message    string // error.message from the body, when present.
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Detail())
}

// Detail returns the provider's error message, or the raw body.
func (e *APIError) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Body
}
