package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// Response is the fully accumulated result of one LLM call.
type Response struct {
	Text      string
	ToolCalls []models.ToolCall
	Usage     models.TokenUsage
}

// Collect drains the chunk stream into a Response. A non-retryable
// ErrorChunk aborts collection with an error.
func Collect(ctx context.Context, chunks <-chan Chunk) (*Response, error) {
	return CollectWithCallback(ctx, chunks, nil)
}

// CollectWithCallback drains the chunk stream, invoking onText for each
// text delta as it arrives. onText may be nil.
func CollectWithCallback(ctx context.Context, chunks <-chan Chunk, onText func(string)) (*Response, error) {
	resp := &Response{}
	var text strings.Builder

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				resp.Text = text.String()
				return resp, nil
			}
			switch c := chunk.(type) {
			case *TextChunk:
				text.WriteString(c.Content)
				if onText != nil {
					onText(c.Content)
				}
			case *ToolCallChunk:
				resp.ToolCalls = append(resp.ToolCalls, models.ToolCall{
					ID:   c.CallID,
					Name: c.Name,
					Args: c.Arguments,
				})
			case *UsageChunk:
				resp.Usage = c.Usage
			case *ErrorChunk:
				return nil, fmt.Errorf("llm provider error: %s", c.Message)
			}
		}
	}
}
