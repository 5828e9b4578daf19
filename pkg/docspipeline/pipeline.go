package docspipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/accounting"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/agent"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/config"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/events"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/graph"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/llm"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/prompts"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/tools"
)

// Pipeline holds the docs pipeline's shared dependencies. All fields
// are read-only after construction; per-turn state lives in the docs
// scratchpad.
type Pipeline struct {
	registry *llm.Registry
	manifest *Manifest
	cfg      *config.Config
}

// New creates the docs pipeline.
func New(registry *llm.Registry, manifest *Manifest, cfg *config.Config) *Pipeline {
	return &Pipeline{registry: registry, manifest: manifest, cfg: cfg}
}

// Graph returns the compiled pipeline for the executor.
func (p *Pipeline) Graph() *graph.Pipeline {
	return &graph.Pipeline{
		Tool: tools.DocsTool,
		Nodes: []graph.Node{
			{Name: "extract_docs_question", Label: "Reading question", Run: p.extractQuestion},
			{Name: "select_docs", Label: "Selecting documentation", Run: p.selectDocs},
			{Name: "synthesize_docs", Label: "Reading documentation", Run: p.synthesize},
			{Name: "format_docs_results", Label: "Formatting answer", Run: p.formatResults},
		},
	}
}

// extractQuestion resets the docs scratchpad and copies the tool call
// arguments.
func (p *Pipeline) extractQuestion(_ context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	ai := rt.State.LastAIMessage()
	if ai == nil || !ai.HasToolCalls() {
		return nil, nil, fmt.Errorf("docs pipeline invoked without a tool call")
	}
	args, err := tools.ParseArgs(ai.ToolCalls[0].Args)
	if err != nil {
		return nil, nil, err
	}
	scratch := models.DocsScratch{Question: args.Question, Context: args.Context}
	return &models.StateUpdate{Docs: &scratch}, map[string]any{
		"question": args.Question,
	}, nil
}

// docSelection is the structured output of select_docs.
type docSelection struct {
	Indices []int `json:"indices" jsonschema:"description=Indices of the selected documents from the numbered manifest"`
}

// selectDocs asks a lightweight model for the minimum relevant set of
// documents. Selection failures fall back to selecting everything
// rather than failing the turn; out-of-range indices are dropped.
func (p *Pipeline) selectDocs(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	scratch := rt.State.Docs
	update := &models.StateUpdate{Docs: &scratch}

	var parsed *docSelection
	var usage models.TokenUsage
	client, model, llmErr := p.registry.ClientFor(config.PromptDocumentSelection)
	if llmErr == nil {
		llmErr = rt.Timer.LLM(func() error {
			var err error
			parsed, usage, err = llm.GenerateStructured[docSelection](
				ctx, client, model, "",
				prompts.DocumentSelection(scratch.Question, scratch.Context, p.manifest.Listing(), p.cfg.MaxDocsPerSelection))
			return err
		})
	}
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	var indices []int
	if llmErr != nil {
		slog.Warn("Document selection failed, falling back to all documents", "error", llmErr)
		indices = p.manifest.AllIndices()
	} else {
		update.TokenUsage = []models.UsageRecord{
			accounting.MakeUsageRecord("select_docs", tools.DocsTool, model, usage),
		}
		for _, idx := range parsed.Indices {
			if idx >= 0 && idx < len(p.manifest.Docs) {
				indices = append(indices, idx)
			}
		}
		if len(indices) == 0 {
			slog.Warn("Document selection returned no valid indices, falling back to all documents")
			indices = p.manifest.AllIndices()
		} else if len(indices) > p.cfg.MaxDocsPerSelection {
			indices = indices[:p.cfg.MaxDocsPerSelection]
		}
	}

	for _, idx := range indices {
		scratch.SelectedFiles = append(scratch.SelectedFiles, p.manifest.Docs[idx].Path)
	}
	return update, map[string]any{
		"selected_files": scratch.SelectedFiles,
	}, nil
}

// synthesize produces a focused answer from the selected bodies. A
// synthesis failure falls back to the raw concatenated bodies; no
// loadable bodies at all yield the terminal no-docs message.
func (p *Pipeline) synthesize(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	scratch := rt.State.Docs

	var bodies []string
	for _, idx := range p.manifest.IndicesOf(scratch.SelectedFiles) {
		if body := p.manifest.BodyOf(idx); body != "" {
			bodies = append(bodies, fmt.Sprintf("# %s\n\n%s", p.manifest.Docs[idx].Meta.Title, body))
		}
	}
	if len(bodies) == 0 {
		scratch.Synthesis = NoDocsMessage
		return &models.StateUpdate{Docs: &scratch}, map[string]any{
			"synthesized": false,
		}, nil
	}
	combined := strings.Join(bodies, "\n\n---\n\n")

	client, model, err := p.registry.ClientFor(config.PromptDocumentationSynthesis)
	if err != nil {
		return nil, nil, err
	}

	update := &models.StateUpdate{Docs: &scratch}
	var resp *llm.Response
	llmErr := rt.Timer.LLM(func() error {
		chunks, err := client.Generate(ctx, &llm.Request{
			Model: model,
			Messages: []models.Message{models.NewHumanMessage(
				prompts.DocumentationSynthesis(scratch.Question, scratch.Context, combined))},
		})
		if err != nil {
			return err
		}
		resp, err = llm.Collect(ctx, chunks)
		return err
	})
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	if llmErr != nil {
		slog.Warn("Documentation synthesis failed, falling back to raw bodies", "error", llmErr)
		scratch.Synthesis = combined
	} else {
		scratch.Synthesis = resp.Text
		update.TokenUsage = []models.UsageRecord{
			accounting.MakeUsageRecord("synthesize_docs", tools.DocsTool, model, resp.Usage),
		}
	}
	return update, map[string]any{
		"synthesized": llmErr == nil,
	}, nil
}

// formatResults emits the synthesis as a ToolMessage. Docs calls are
// free: queries_executed is not incremented.
func (p *Pipeline) formatResults(_ context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	ai := rt.State.LastAIMessage()
	if ai == nil || !ai.HasToolCalls() {
		return nil, nil, fmt.Errorf("docs pipeline lost its originating tool call")
	}
	first := ai.ToolCalls[0]
	content := rt.State.Docs.Synthesis

	for _, delta := range splitForStreaming(content) {
		rt.Emit(events.ToolOutput(delta))
	}

	messages := []models.Message{models.NewToolMessage(content, first.ID, first.Name)}
	messages = append(messages, agent.RejectExtraToolCalls(ai)...)
	return &models.StateUpdate{AppendMessages: messages}, map[string]any{
		"selected_files": rt.State.Docs.SelectedFiles,
	}, nil
}

// splitForStreaming chunks tool output for token-by-token emission.
func splitForStreaming(s string) []string {
	const chunkSize = 64
	var chunks []string
	for len(s) > chunkSize {
		chunks = append(chunks, s[:chunkSize])
		s = s[chunkSize:]
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}
