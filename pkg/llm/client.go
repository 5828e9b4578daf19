// Package llm provides a provider-agnostic client for the three
// supported LLM backends (OpenAI, Anthropic, Google) with a
// channel-based streaming API.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// Client is the provider-agnostic LLM capability.
type Client interface {
	// Generate sends a conversation to the LLM and returns a stream of
	// chunks. The returned channel is closed when the stream completes.
	// Errors are delivered as ErrorChunk values in the channel.
	Generate(ctx context.Context, req *Request) (<-chan Chunk, error)

	// Provider returns the backend identifier ("openai", "anthropic",
	// "google").
	Provider() string
}

// Request describes one LLM invocation.
type Request struct {
	Model     string
	System    string
	Messages  []models.Message
	Tools     []ToolDefinition // nil = no tools
	MaxTokens int
	// JSONMode asks the provider for a strict-JSON response. Used by
	// structured-output calls; ignored by providers without a JSON mode.
	JSONMode bool
}

// ToolDefinition describes a tool available to the LLM.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema json.RawMessage // JSON Schema
}

// Chunk is the interface for all streaming chunk types.
type Chunk interface {
	chunkType() ChunkType
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeToolCall ChunkType = "tool_call"
	ChunkTypeUsage    ChunkType = "usage"
	ChunkTypeError    ChunkType = "error"
)

// TextChunk is a chunk of the LLM's text response.
type TextChunk struct{ Content string }

// ToolCallChunk signals the LLM wants to call a tool. Arguments carry
// the complete accumulated JSON input.
type ToolCallChunk struct {
	CallID    string
	Name      string
	Arguments json.RawMessage
}

// UsageChunk reports token consumption for this LLM call. Delivered at
// most once, before the channel closes.
type UsageChunk struct{ Usage models.TokenUsage }

// ErrorChunk signals an error from the LLM provider.
type ErrorChunk struct {
	Message   string
	Retryable bool
}

func (c *TextChunk) chunkType() ChunkType     { return ChunkTypeText }
func (c *ToolCallChunk) chunkType() ChunkType { return ChunkTypeToolCall }
func (c *UsageChunk) chunkType() ChunkType    { return ChunkTypeUsage }
func (c *ErrorChunk) chunkType() ChunkType    { return ChunkTypeError }

// ExtractText normalizes provider response content into a single string.
// Providers return either a plain string or a list of content blocks
// with "text" fields; both shapes collapse to their concatenated text.
func ExtractText(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var sb strings.Builder
		for _, block := range v {
			switch b := block.(type) {
			case string:
				sb.WriteString(b)
			case map[string]any:
				if t, ok := b["text"].(string); ok {
					sb.WriteString(t)
				}
			}
		}
		return sb.String()
	default:
		return ""
	}
}
