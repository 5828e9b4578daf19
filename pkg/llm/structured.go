package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// SchemaFor derives an inline JSON Schema for T.
func SchemaFor[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	var zero T
	schema := reflector.Reflect(&zero)
	data, err := json.Marshal(schema)
	if err != nil {
		// Reflection over a plain struct cannot produce unmarshalable
		// output; an empty object schema keeps the call total.
		return json.RawMessage(`{"type":"object"}`)
	}
	return data
}

// GenerateStructured runs a single LLM call instructed to return a JSON
// value matching the schema derived from T, and parses the result.
func GenerateStructured[T any](ctx context.Context, c Client, model, system, prompt string) (*T, models.TokenUsage, error) {
	schema := SchemaFor[T]()

	instructed := fmt.Sprintf(
		"%s\n\nRespond with a single JSON object matching this JSON Schema exactly. "+
			"Do not include any prose outside the JSON.\n\nSchema:\n%s",
		prompt, string(schema))

	chunks, err := c.Generate(ctx, &Request{
		Model:    model,
		System:   system,
		Messages: []models.Message{models.NewHumanMessage(instructed)},
		JSONMode: true,
	})
	if err != nil {
		return nil, models.TokenUsage{}, err
	}

	resp, err := Collect(ctx, chunks)
	if err != nil {
		return nil, models.TokenUsage{}, err
	}

	var parsed T
	if err := json.Unmarshal([]byte(StripCodeFence(resp.Text)), &parsed); err != nil {
		return nil, resp.Usage, fmt.Errorf("structured output did not parse: %w", err)
	}
	return &parsed, resp.Usage, nil
}

// StripCodeFence removes a surrounding markdown code fence, if present.
// Models in JSON mode occasionally still wrap their output in ```json.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
