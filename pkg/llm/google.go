package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"google.golang.org/genai"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// GoogleClient implements Client against the Gemini API.
type GoogleClient struct {
	client *genai.Client
	callID atomic.Int64
}

// NewGoogleClient creates a Gemini-backed client.
func NewGoogleClient(ctx context.Context, apiKey string) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, errors.New("google: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GoogleClient{client: client}, nil
}

// Provider returns "google".
func (c *GoogleClient) Provider() string { return "google" }

// Generate sends the conversation and returns a channel of chunks.
func (c *GoogleClient) Generate(ctx context.Context, req *Request) (<-chan Chunk, error) {
	contents, err := convertGoogleMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}
	if len(req.Tools) > 0 {
		tools, err := convertGoogleTools(req.Tools)
		if err != nil {
			return nil, err
		}
		config.Tools = tools
	}

	ch := make(chan Chunk, 32)
	go func() {
		defer close(ch)
		c.processStream(ctx, c.client.Models.GenerateContentStream(ctx, req.Model, contents, config), ch)
	}()
	return ch, nil
}

func (c *GoogleClient) processStream(ctx context.Context, stream func(func(*genai.GenerateContentResponse, error) bool), ch chan<- Chunk) {
	send := func(chunk Chunk) bool {
		select {
		case ch <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var usage models.TokenUsage
	sawUsage := false

	for resp, err := range stream {
		if err != nil {
			send(&ErrorChunk{Message: err.Error(), Retryable: false})
			return
		}
		if resp == nil {
			continue
		}

		if md := resp.UsageMetadata; md != nil {
			sawUsage = true
			usage = models.TokenUsage{
				InputTokens:  int(md.PromptTokenCount),
				OutputTokens: int(md.CandidatesTokenCount),
				TotalTokens:  int(md.TotalTokenCount),
			}
			if md.CachedContentTokenCount > 0 {
				usage.InputDetails = &models.InputTokenDetails{
					CacheRead: int(md.CachedContentTokenCount),
				}
			}
		}

		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				if part.Text != "" && !send(&TextChunk{Content: part.Text}) {
					return
				}
				if part.FunctionCall != nil {
					args, err := json.Marshal(part.FunctionCall.Args)
					if err != nil {
						args = []byte("{}")
					}
					chunk := &ToolCallChunk{
						// Gemini does not assign tool call IDs; generate one
						// so tool results can be correlated.
						CallID:    fmt.Sprintf("call_%s_%d", part.FunctionCall.Name, c.callID.Add(1)),
						Name:      part.FunctionCall.Name,
						Arguments: args,
					}
					if !send(chunk) {
						return
					}
				}
			}
		}
	}

	if sawUsage {
		send(&UsageChunk{Usage: usage})
	}
}

func convertGoogleMessages(messages []models.Message) ([]*genai.Content, error) {
	var result []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			// Handled separately via SystemInstruction.
			continue
		case models.RoleAssistant:
			content := &genai.Content{Role: genai.RoleModel}
			if msg.Content != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal(tc.Args, &args); err != nil {
					return nil, fmt.Errorf("invalid tool call args for %s: %w", tc.Name, err)
				}
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: args},
				})
			}
			result = append(result, content)
		case models.RoleTool:
			result = append(result, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     msg.ToolName,
						Response: map[string]any{"result": msg.Content},
					},
				}},
			})
		default:
			result = append(result, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}
	return result, nil
}

func convertGoogleTools(tools []ToolDefinition) ([]*genai.Tool, error) {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		var schemaMap map[string]any
		if err := json.Unmarshal(tool.ParametersSchema, &schemaMap); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGeminiSchema(schemaMap),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}, nil
}

// toGeminiSchema converts a JSON Schema object into Gemini's Schema
// type. Only the subset of JSON Schema the tool dossiers use is mapped.
func toGeminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}
	schema := &genai.Schema{}
	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = toGeminiSchema(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = toGeminiSchema(items)
	}
	return schema
}
