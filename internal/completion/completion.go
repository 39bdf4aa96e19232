// internal/completion/completion.go

// Package completion defines the interface for talking to chat-completion
// services. It provides a common abstraction for submitting one structured
// request and receiving one structured response, regardless of the provider
// behind it.
package completion

import (
	"context"
	"errors"
)

// ErrTransport marks network, timeout, and non-2xx failures at the client
// boundary. Callers match it with errors.Is.
var ErrTransport = errors.New("completion: transport failure")

// Message represents a single message in a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat requests a structured reply from the service. The only
// value used here is {"type": "json_object"}.
type ResponseFormat struct {
	Type string `json:"type"`
}

// Request encapsulates one chat-completion call: exactly one system message
// followed by one user message, plus the model identifier and an optional
// seed for reduced (not eliminated) run-to-run variance.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Seed           *int            `json:"seed,omitempty"`
}

// Choice is a single candidate reply. FinishReason reports why the service
// stopped generating; only "stop" indicates a trustworthy payload.
type Choice struct {
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

// Usage reports token accounting for one request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the service's reply to one Request.
type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// JSONObjectFormat returns the response_format value requesting a structured
// object reply.
func JSONObjectFormat() *ResponseFormat {
	return &ResponseFormat{Type: "json_object"}
}

// NewRequest builds a Request with the fixed system-then-user message shape.
func NewRequest(model, systemInstruction, userContent string, seed *int) Request {
	return Request{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userContent},
		},
		ResponseFormat: JSONObjectFormat(),
		Seed:           seed,
	}
}

// Client is the interface every completion provider must implement.
type Client interface {
	// Complete sends one request and returns the service's response.
	// Transport-level failures wrap ErrTransport.
	Complete(ctx context.Context, req Request) (Response, error)
}
