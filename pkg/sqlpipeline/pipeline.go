// Package sqlpipeline answers data questions against the relational
// warehouse when the agent calls query_tool.
package sqlpipeline

import (
	"context"
	"fmt"
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
	"github.com/shreyasgm/ask-atlas-sub001/pkg/warehouse"
)

// Pipeline holds the SQL pipeline's shared dependencies. Catalog and
// configuration are read-only after construction.
type Pipeline struct {
	registry *llm.Registry
	executor *warehouse.Executor
	catalog  *warehouse.TableCatalog
	cfg      *config.Config
}

// New creates the SQL pipeline.
func New(registry *llm.Registry, executor *warehouse.Executor, catalog *warehouse.TableCatalog, cfg *config.Config) *Pipeline {
	return &Pipeline{registry: registry, executor: executor, catalog: catalog, cfg: cfg}
}

// Graph returns the compiled pipeline for the executor.
func (p *Pipeline) Graph() *graph.Pipeline {
	return &graph.Pipeline{
		Tool: tools.QueryTool,
		Nodes: []graph.Node{
			{Name: "extract_tool_question", Label: "Reading question", Run: p.extractToolQuestion},
			{Name: "extract_products", Label: "Identifying products", Run: p.extractProducts},
			{Name: "lookup_codes", Label: "Looking up product codes", Run: p.lookupCodes},
			{Name: "get_table_info", Label: "Assembling table info", Run: p.getTableInfo},
			{Name: "generate_sql", Label: "Writing SQL", Run: p.generateSQL},
			{Name: "execute_sql", Label: "Running query", Run: p.executeSQL},
			{Name: "format_results", Label: "Formatting results", Run: p.formatResults},
		},
	}
}

// extractToolQuestion reads question and context from the first tool
// call and resets the SQL scratchpad.
func (p *Pipeline) extractToolQuestion(_ context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	ai := rt.State.LastAIMessage()
	if ai == nil || !ai.HasToolCalls() {
		return nil, nil, fmt.Errorf("sql pipeline invoked without a tool call")
	}
	args, err := tools.ParseArgs(ai.ToolCalls[0].Args)
	if err != nil {
		return nil, nil, err
	}
	scratch := models.SQLScratch{Question: args.Question, Context: args.Context}
	return &models.StateUpdate{SQL: &scratch}, map[string]any{
		"question": args.Question,
	}, nil
}

// SchemasAndProducts is the structured output of product extraction.
type SchemasAndProducts struct {
	ClassificationSchemas []string                  `json:"classification_schemas" jsonschema:"description=Schemas the question requires: hs92 hs12 sitc services_unilateral services_bilateral"`
	Products              []models.ExtractedProduct `json:"products" jsonschema:"description=Products mentioned by name without explicit codes"`
	RequiresProductLookup bool                      `json:"requires_product_lookup" jsonschema:"description=True when any product needs a code lookup"`
}

// extractProducts identifies the classification schemas the question
// implies and any product names needing code lookups.
func (p *Pipeline) extractProducts(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	client, model, err := p.registry.ClientFor(config.PromptProductExtraction)
	if err != nil {
		return nil, nil, err
	}

	scratch := rt.State.SQL
	var parsed *SchemasAndProducts
	var usage models.TokenUsage
	err = rt.Timer.LLM(func() error {
		parsed, usage, err = llm.GenerateStructured[SchemasAndProducts](
			ctx, client, model, "",
			prompts.ProductExtraction(scratch.Question, scratch.Context))
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("product extraction failed: %w", err)
	}

	schemas := normalizeSchemas(parsed.ClassificationSchemas, rt.State.OverrideSchema)
	scratch.Schemas = schemas
	scratch.Products = parsed.Products
	scratch.RequiresLookup = parsed.RequiresProductLookup && len(parsed.Products) > 0

	return &models.StateUpdate{
		SQL: &scratch,
		TokenUsage: []models.UsageRecord{
			accounting.MakeUsageRecord("extract_products", tools.QueryTool, model, usage),
		},
	}, map[string]any{
		"schemas":         schemas,
		"products":        len(parsed.Products),
		"requires_lookup": scratch.RequiresLookup,
	}, nil
}

// normalizeSchemas applies the default, the override, and the cap of
// two data schemas.
func normalizeSchemas(schemas []string, override string) []string {
	if override != "" {
		return []string{override}
	}
	if len(schemas) == 0 {
		return []string{"hs92"}
	}
	if len(schemas) > 2 {
		schemas = schemas[:2]
	}
	return schemas
}

// codeSelection is the structured output of the final code pick.
type codeSelection struct {
	Selections []models.ResolvedProductCodes `json:"selections"`
}

// lookupCodes verifies candidate codes and searches the classification
// tables, then has a lightweight model pick the final codes.
func (p *Pipeline) lookupCodes(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	scratch := rt.State.SQL
	if !scratch.RequiresLookup {
		scratch.Codes = nil
		return &models.StateUpdate{SQL: &scratch}, nil, nil
	}

	var candidateBlock strings.Builder
	err := rt.Timer.IO(func() error {
		for _, product := range scratch.Products {
			schema := product.ClassificationSchema
			if schema == "" {
				schema = scratch.Schemas[0]
			}

			seen := make(map[string]struct{})
			var candidates []warehouse.CodeCandidate

			verified, err := p.executor.VerifyCodes(ctx, schema, product.CandidateCodes)
			if err != nil {
				return err
			}
			for _, c := range verified {
				if _, ok := seen[c.Code]; !ok {
					seen[c.Code] = struct{}{}
					candidates = append(candidates, c)
				}
			}

			found, err := p.executor.SearchProductName(ctx, schema, product.Name, 10)
			if err != nil {
				return err
			}
			for _, c := range found {
				if _, ok := seen[c.Code]; !ok {
					seen[c.Code] = struct{}{}
					candidates = append(candidates, c)
				}
			}

			candidateBlock.WriteString(fmt.Sprintf("Product %q (%s):\n", product.Name, schema))
			if len(candidates) == 0 {
				candidateBlock.WriteString("  no candidates found\n")
			}
			for _, c := range candidates {
				candidateBlock.WriteString(fmt.Sprintf("  %s: %s\n", c.Code, c.NameShort))
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("product code lookup failed: %w", err)
	}

	client, model, err := p.registry.ClientFor(config.PromptProductCodeSelection)
	if err != nil {
		return nil, nil, err
	}
	var parsed *codeSelection
	var usage models.TokenUsage
	err = rt.Timer.LLM(func() error {
		parsed, usage, err = llm.GenerateStructured[codeSelection](
			ctx, client, model, "",
			prompts.ProductCodeSelection(scratch.Question, candidateBlock.String()))
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("product code selection failed: %w", err)
	}

	scratch.Codes = parsed.Selections
	return &models.StateUpdate{
		SQL: &scratch,
		TokenUsage: []models.UsageRecord{
			accounting.MakeUsageRecord("lookup_codes", tools.QueryTool, model, usage),
		},
	}, map[string]any{
		"resolved_products": len(parsed.Selections),
	}, nil
}

// getTableInfo assembles the table description block for the selected
// schemas from the pre-loaded catalog.
func (p *Pipeline) getTableInfo(_ context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	scratch := rt.State.SQL
	scratch.TableInfo = p.catalog.TableInfoFor(scratch.Schemas)
	return &models.StateUpdate{SQL: &scratch}, map[string]any{
		"schemas": scratch.Schemas,
	}, nil
}

// generateSQL asks the frontier model for a single SELECT statement.
func (p *Pipeline) generateSQL(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	client, model, err := p.registry.ClientFor(config.PromptSQLGeneration)
	if err != nil {
		return nil, nil, err
	}

	scratch := rt.State.SQL
	prompt := prompts.SQLGeneration(prompts.SQLGenerationParams{
		Question:     scratch.Question,
		TopK:         p.cfg.MaxRowsPerQuery,
		TableInfo:    scratch.TableInfo,
		ProductCodes: formatCodes(scratch.Codes),
		Direction:    rt.State.OverrideDirection,
		Mode:         rt.State.OverrideMode,
		Context:      scratch.Context,
		SQLMaxYear:   p.cfg.SQLMaxYear,
	})

	var resp *llm.Response
	err = rt.Timer.LLM(func() error {
		chunks, err := client.Generate(ctx, &llm.Request{
			Model:    model,
			Messages: []models.Message{models.NewHumanMessage(prompt)},
		})
		if err != nil {
			return err
		}
		resp, err = llm.Collect(ctx, chunks)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sql generation failed: %w", err)
	}

	scratch.SQL = stripSQLFence(resp.Text)
	return &models.StateUpdate{
		SQL: &scratch,
		TokenUsage: []models.UsageRecord{
			accounting.MakeUsageRecord("generate_sql", tools.QueryTool, model, resp.Usage),
		},
	}, map[string]any{
		"sql": scratch.SQL,
	}, nil
}

// executeSQL runs the generated query. Execution failures land in
// last_error rather than failing the node, so the model can see the
// error and retry.
func (p *Pipeline) executeSQL(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	scratch := rt.State.SQL

	var result *warehouse.Result
	var execErr error
	_ = rt.Timer.IO(func() error {
		result, execErr = p.executor.Execute(ctx, scratch.SQL)
		return execErr
	})
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	if execErr != nil {
		update := &models.StateUpdate{
			SQL:       &scratch,
			LastError: models.ErrString(execErr.Error()),
		}
		return update, map[string]any{
			"success":    false,
			"last_error": execErr.Error(),
		}, nil
	}

	scratch.Result = warehouse.FormatResult(result)
	scratch.ResultRows = result.Rows
	scratch.ResultColumns = result.Columns
	scratch.RowCount = result.RowCount
	scratch.Tables = result.Tables
	scratch.ExecutionTimeMS = result.ExecutionTimeMS

	return &models.StateUpdate{SQL: &scratch, LastError: models.ErrString("")}, map[string]any{
		"success":           true,
		"row_count":         result.RowCount,
		"tables":            result.Tables,
		"execution_time_ms": result.ExecutionTimeMS,
	}, nil
}

// formatResults wraps the outcome in a ToolMessage on the originating
// call id and counts the query against the per-turn budget.
func (p *Pipeline) formatResults(_ context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	ai := rt.State.LastAIMessage()
	if ai == nil || !ai.HasToolCalls() {
		return nil, nil, fmt.Errorf("sql pipeline lost its originating tool call")
	}
	first := ai.ToolCalls[0]

	content := rt.State.SQL.Result
	if rt.State.LastError != "" {
		content = fmt.Sprintf("The SQL query failed: %s\n\nQuery:\n%s", rt.State.LastError, rt.State.SQL.SQL)
	}

	for _, delta := range splitForStreaming(content) {
		rt.Emit(events.ToolOutput(delta))
	}

	messages := []models.Message{models.NewToolMessage(content, first.ID, first.Name)}
	messages = append(messages, agent.RejectExtraToolCalls(ai)...)

	return &models.StateUpdate{
		AppendMessages: messages,
		QueriesDelta:   1,
	}, map[string]any{
		"row_count": rt.State.SQL.RowCount,
	}, nil
}

// formatCodes renders resolved codes for the SQL prompt.
func formatCodes(codes []models.ResolvedProductCodes) string {
	if len(codes) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, c := range codes {
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", c.ProductName, c.ClassificationSchema, strings.Join(c.Codes, ", ")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// stripSQLFence removes a surrounding ```sql fence if the model added
// one despite instructions.
func stripSQLFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```sql")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
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
