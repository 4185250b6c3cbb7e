// Package llm talks to hosted language models. Coaching feedback is the only
// consumer; every provider returns JSON that matches the request schema.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a structured response for a request.
type Provider interface {
	// Generate returns JSON conforming to req.Schema when one is set.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model the provider is configured to use.
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema // nil for free text
	MaxTokens   int
	Temperature float64 // 0 means provider default
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON Schema a response must satisfy. Name doubles as the
// structured output name sent to providers and must be kebab-case.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a provider's answer. StopReason is normalized to "end" or
// "max_tokens".
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
