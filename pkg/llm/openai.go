package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// OpenAIClient implements Client against the OpenAI Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates an OpenAI-backed client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	return &OpenAIClient{client: openai.NewClient(apiKey)}, nil
}

// Provider returns "openai".
func (c *OpenAIClient) Provider() string { return "openai" }

// Generate sends the conversation and returns a channel of chunks.
func (c *OpenAIClient) Generate(ctx context.Context, req *Request) (<-chan Chunk, error) {
	request := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: convertOpenAIMessages(req.System, req.Messages),
		Stream:   true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}
	if req.MaxTokens > 0 {
		request.MaxTokens = req.MaxTokens
	}
	if req.JSONMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if len(req.Tools) > 0 {
		request.Tools = convertOpenAITools(req.Tools)
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return nil, err
	}

	ch := make(chan Chunk, 32)
	go func() {
		defer close(ch)
		defer stream.Close()
		c.processStream(ctx, stream, ch)
	}()
	return ch, nil
}

// processStream converts OpenAI stream deltas into chunks. Tool call
// arguments arrive as JSON fragments keyed by index and are accumulated
// until the stream ends.
func (c *OpenAIClient) processStream(ctx context.Context, stream *openai.ChatCompletionStream, ch chan<- Chunk) {
	send := func(chunk Chunk) bool {
		select {
		case ch <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	pending := make(map[int]*ToolCallChunk)
	pendingArgs := make(map[int]*strings.Builder)
	var order []int
	var usage models.TokenUsage

	flushTools := func() bool {
		for _, idx := range order {
			tc := pending[idx]
			if tc == nil || tc.CallID == "" || tc.Name == "" {
				continue
			}
			args := pendingArgs[idx].String()
			if args == "" {
				args = "{}"
			}
			tc.Arguments = json.RawMessage(args)
			if !send(tc) {
				return false
			}
		}
		pending = make(map[int]*ToolCallChunk)
		pendingArgs = make(map[int]*strings.Builder)
		order = nil
		return true
	}

	for {
		response, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !flushTools() {
					return
				}
				send(&UsageChunk{Usage: usage})
				return
			}
			send(&ErrorChunk{Message: err.Error(), Retryable: false})
			return
		}

		// The final usage-bearing chunk carries no choices.
		if response.Usage != nil {
			usage = models.TokenUsage{
				InputTokens:  response.Usage.PromptTokens,
				OutputTokens: response.Usage.CompletionTokens,
				TotalTokens:  response.Usage.TotalTokens,
			}
			if d := response.Usage.PromptTokensDetails; d != nil && d.CachedTokens > 0 {
				usage.InputDetails = &models.InputTokenDetails{CacheRead: d.CachedTokens}
			}
		}
		if len(response.Choices) == 0 {
			continue
		}

		choice := response.Choices[0]
		if choice.Delta.Content != "" && !send(&TextChunk{Content: choice.Delta.Content}) {
			return
		}

		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			if pending[idx] == nil {
				pending[idx] = &ToolCallChunk{}
				pendingArgs[idx] = &strings.Builder{}
				order = append(order, idx)
			}
			if tc.ID != "" {
				pending[idx].CallID = tc.ID
			}
			if tc.Function.Name != "" {
				pending[idx].Name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				pendingArgs[idx].WriteString(tc.Function.Arguments)
			}
		}

		if choice.FinishReason == openai.FinishReasonToolCalls {
			if !flushTools() {
				return
			}
		}
	}
}

func convertOpenAIMessages(system string, messages []models.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: msg.Content,
			})
		case models.RoleAssistant:
			converted := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
			for _, tc := range msg.ToolCalls {
				converted.ToolCalls = append(converted.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Args),
					},
				})
			}
			result = append(result, converted)
		case models.RoleTool:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		default:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		}
	}
	return result
}

func convertOpenAITools(tools []ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.ParametersSchema,
			},
		})
	}
	return result
}
