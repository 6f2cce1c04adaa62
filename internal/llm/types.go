// Package llm defines the boundary to the code-generation model provider.
// The provider is a black box that turns conversation history plus tool
// definitions into text and tool-call requests.
package llm

import "context"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	// RoleTool carries tool execution results back to the model.
	RoleTool = "tool"
)

// Message is one turn of conversation context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant turns that requested tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolResults is set on tool turns, carrying execution results.
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolDefinition describes a tool the model can invoke.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult is the outcome of executing one tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// Usage captures token accounting from the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChatRequest is one reasoning step's input: system instructions, the full
// running history, and the tools the model may call.
type ChatRequest struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// ChatResponse is the model's output for one reasoning step. A non-empty
// ToolCalls slice sends the agent loop to its tool step.
type ChatResponse struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
	Usage      Usage
}

// Client is the interface for LLM providers. Chat streams text fragments
// through onToken as they arrive; onToken may be nil when the caller only
// needs the final response.
type Client interface {
	Chat(ctx context.Context, req ChatRequest, onToken func(string)) (*ChatResponse, error)
}
