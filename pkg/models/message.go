package models

import "encoding/json"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall represents an LLM's request to invoke a tool.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// TokenUsage reports token consumption for a single LLM call.
// Detail fields are provider-dependent and may be absent.
type TokenUsage struct {
	InputTokens  int                `json:"input_tokens"`
	OutputTokens int                `json:"output_tokens"`
	TotalTokens  int                `json:"total_tokens"`
	InputDetails *InputTokenDetails `json:"input_token_details,omitempty"`
}

// InputTokenDetails breaks input tokens down by cache behavior.
// Only providers with prompt caching report these; others leave them nil.
type InputTokenDetails struct {
	CacheRead     int `json:"cache_read"`
	CacheCreation int `json:"cache_creation"`
}

// Message is a single entry in the turn's conversation log.
// The Role field discriminates the variants:
//   - human: Content only
//   - assistant: Content, ToolCalls, Usage, ResponseMetadata
//   - tool: Content, ToolCallID, ToolName
type Message struct {
	Role             Role           `json:"role"`
	Content          string         `json:"content"`
	ToolCalls        []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID       string         `json:"tool_call_id,omitempty"`
	ToolName         string         `json:"tool_name,omitempty"`
	Usage            *TokenUsage    `json:"usage_metadata,omitempty"`
	ResponseMetadata map[string]any `json:"response_metadata,omitempty"`
}

// NewHumanMessage creates a user-authored message.
func NewHumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// NewAIMessage creates an assistant message.
func NewAIMessage(content string, toolCalls []ToolCall, usage *TokenUsage) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls, Usage: usage}
}

// NewToolMessage creates a tool result message bound to a tool call id.
func NewToolMessage(content, toolCallID, toolName string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID, ToolName: toolName}
}

// HasToolCalls reports whether an assistant message requested tool use.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
