package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient implements Client against the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates an Anthropic-backed client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Provider returns "anthropic".
func (c *AnthropicClient) Provider() string { return "anthropic" }

// Generate sends the conversation and returns a channel of chunks.
func (c *AnthropicClient) Generate(ctx context.Context, req *Request) (<-chan Chunk, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan Chunk, 32)
	go func() {
		defer close(ch)
		stream := c.client.Messages.NewStreaming(ctx, params)
		c.processStream(ctx, stream, ch)
	}()
	return ch, nil
}

func (c *AnthropicClient) buildParams(req *Request) (anthropic.MessageNewParams, error) {
	messages, err := convertAnthropicMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertAnthropicTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// processStream converts Anthropic SSE events into chunks. Tool call
// input arrives as partial JSON deltas and is accumulated until the
// content block closes.
func (c *AnthropicClient) processStream(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], ch chan<- Chunk) {
	var usage models.TokenUsage
	var currentTool *ToolCallChunk
	var toolInput strings.Builder

	send := func(chunk Chunk) bool {
		select {
		case ch <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "message_start":
			u := event.AsMessageStart().Message.Usage
			usage.InputTokens = int(u.InputTokens)
			if u.CacheReadInputTokens > 0 || u.CacheCreationInputTokens > 0 {
				usage.InputDetails = &models.InputTokenDetails{
					CacheRead:     int(u.CacheReadInputTokens),
					CacheCreation: int(u.CacheCreationInputTokens),
				}
			}

		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				toolUse := block.AsToolUse()
				currentTool = &ToolCallChunk{CallID: toolUse.ID, Name: toolUse.Name}
				toolInput.Reset()
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" && !send(&TextChunk{Content: delta.Text}) {
					return
				}
			case "input_json_delta":
				toolInput.WriteString(delta.PartialJSON)
			}

		case "content_block_stop":
			if currentTool != nil {
				args := toolInput.String()
				if args == "" {
					args = "{}"
				}
				currentTool.Arguments = json.RawMessage(args)
				if !send(currentTool) {
					return
				}
				currentTool = nil
			}

		case "message_delta":
			u := event.AsMessageDelta().Usage
			if u.OutputTokens > 0 {
				usage.OutputTokens = int(u.OutputTokens)
			}

		case "message_stop":
			usage.TotalTokens = usage.InputTokens + usage.OutputTokens
			send(&UsageChunk{Usage: usage})
			return
		}
	}

	if err := stream.Err(); err != nil {
		send(&ErrorChunk{Message: err.Error(), Retryable: false})
	}
}

func convertAnthropicMessages(messages []models.Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			// Handled separately via params.System.
			continue
		case models.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input map[string]any
				if err := json.Unmarshal(tc.Args, &input); err != nil {
					return nil, fmt.Errorf("invalid tool call args for %s: %w", tc.Name, err)
				}
				content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			result = append(result, anthropic.NewAssistantMessage(content...))
		case models.RoleTool:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result, nil
}

func convertAnthropicTools(tools []ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.ParametersSchema, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool definition for %s", tool.Name)
		}
		param.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, param)
	}
	return result, nil
}
