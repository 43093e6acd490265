// Package llm defines the chat-completion client abstraction used by the
// conversation loop. Providers translate between these neutral types and
// their native wire formats; tool-call arguments cross the boundary as the
// raw serialized payload the model produced, untouched.
package llm

import (
	"context"
)

// Role represents a message sender role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopToolUse      StopReason = "tool_use"
	StopStopSequence StopReason = "stop_sequence"
)

// Message is a single entry in a conversation history.
//
// ToolCalls is populated only on assistant messages that request tool
// invocations. ToolCallID is populated only on tool messages and names
// the call the message answers.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolDefinition describes a tool offered to the model.
// InputSchema is a JSON Schema object; unrecognized vendor fields pass
// through unmodified.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is the model requesting a tool invocation. Arguments holds the
// serialized JSON argument payload exactly as the model produced it; it is
// decoded only at execution time, so a malformed payload surfaces as an
// execution error rather than a dropped call.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// TokenUsage tracks token consumption for a single chat call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CacheRead    int `json:"cache_read"`
	CacheWrite   int `json:"cache_write"`
}

// Total returns the sum of input and output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// ChatRequest contains parameters for a chat completion call.
// A nil Tools slice means the model is offered no tools for this call.
type ChatRequest struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	System      string           `json:"system,omitempty"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// ChatResponse contains the model's reply to a chat request.
type ChatResponse struct {
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason StopReason `json:"stop_reason"`
	Usage      TokenUsage `json:"usage"`
}

// Client is the interface for chat completion providers.
type Client interface {
	// Chat sends a request and returns the complete response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
