package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_model.go -package=mocks course-assistant/internal/llm Model
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks course-assistant/internal/llm Embedder

import (
	"context"
	"encoding/json"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a chat conversation.
// Assistant messages may carry tool calls; tool messages answer one call by ID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string // Tool name for tool messages
}

// ToolCall is a structured request from the model to run a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolParam describes one input field of a tool.
type ToolParam struct {
	Name        string
	Type        string // "string" or "integer"
	Description string
	Required    bool
}

// ToolSchema is the declaration of a tool sent to the model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  []ToolParam
}

// Request is one completion request.
type Request struct {
	System      string
	Messages    []Message
	Tools       []ToolSchema // Empty means the model may not call tools
	MaxTokens   int
	Temperature float32
}

// Response is the model's reply: text, tool calls, or both.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// HasToolCalls reports whether the model asked for any tool.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// Model is a generative model that supports tool calling.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Embedder turns texts into vectors of one fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// JSONSchema renders the parameters as a JSON schema object.
func (s ToolSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Parameters))
	required := []string{}
	for _, p := range s.Parameters {
		props[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
