// Package graphqlpipeline answers country-profile and
// product-composition questions against the remote Atlas GraphQL API
// when the agent calls atlas_graphql.
package graphqlpipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// Pipeline holds the GraphQL pipeline's shared dependencies.
type Pipeline struct {
	registry *llm.Registry
	client   *Client
	catalog  *EntityCatalog
	budget   *BudgetTracker
	cfg      *config.Config
}

// New creates the GraphQL pipeline.
func New(registry *llm.Registry, client *Client, catalog *EntityCatalog, budget *BudgetTracker, cfg *config.Config) *Pipeline {
	return &Pipeline{registry: registry, client: client, catalog: catalog, budget: budget, cfg: cfg}
}

// Budget exposes the tracker for the agent node.
func (p *Pipeline) Budget() *BudgetTracker { return p.budget }

// Graph returns the compiled pipeline for the executor.
func (p *Pipeline) Graph() *graph.Pipeline {
	return &graph.Pipeline{
		Tool: tools.AtlasGraphQL,
		Nodes: []graph.Node{
			{Name: "extract_graphql_question", Label: "Reading question", Run: p.extractQuestion},
			{Name: "classify_query", Label: "Classifying query", Run: p.classifyQuery},
			{Name: "extract_entities", Label: "Extracting entities", Run: p.extractEntities},
			{Name: "resolve_ids", Label: "Resolving identifiers", Run: p.resolveIDs},
			{Name: "build_and_execute_graphql", Label: "Querying Atlas API", Run: p.buildAndExecute},
			{Name: "format_graphql_results", Label: "Formatting results", Run: p.formatResults},
		},
	}
}

// extractQuestion reads question and context from the first tool call
// and resets the GraphQL scratchpad.
func (p *Pipeline) extractQuestion(_ context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	ai := rt.State.LastAIMessage()
	if ai == nil || !ai.HasToolCalls() {
		return nil, nil, fmt.Errorf("graphql pipeline invoked without a tool call")
	}
	args, err := tools.ParseArgs(ai.ToolCalls[0].Args)
	if err != nil {
		return nil, nil, err
	}
	scratch := models.GraphQLScratch{Question: args.Question, Context: args.Context}
	return &models.StateUpdate{GraphQL: &scratch}, map[string]any{
		"question": args.Question,
	}, nil
}

// queryClassification is the structured output of classify_query.
type queryClassification struct {
	QueryType       string `json:"query_type" jsonschema:"description=One of country_profile treemap_products treemap_partners new_products country_growth product_space_rca out_of_scope"`
	IsRejected      bool   `json:"is_rejected" jsonschema:"description=True when the question cannot be answered via the Atlas API"`
	RejectionReason string `json:"rejection_reason,omitempty" jsonschema:"description=One sentence explaining the rejection"`
}

// classifyQuery routes the question to one of the fixed query types.
func (p *Pipeline) classifyQuery(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	client, model, err := p.registry.ClientFor(config.PromptGraphQLClassification)
	if err != nil {
		return nil, nil, err
	}

	scratch := rt.State.GraphQL
	var parsed *queryClassification
	var usage models.TokenUsage
	err = rt.Timer.LLM(func() error {
		parsed, usage, err = llm.GenerateStructured[queryClassification](
			ctx, client, model, "",
			prompts.GraphQLClassification(scratch.Question, scratch.Context))
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("query classification failed: %w", err)
	}

	scratch.QueryType = parsed.QueryType
	scratch.Rejected = parsed.IsRejected || parsed.QueryType == QueryTypeOutOfScope
	scratch.RejectionReason = parsed.RejectionReason
	if scratch.Rejected && scratch.RejectionReason == "" {
		scratch.RejectionReason = "The question cannot be answered by the Atlas API."
	}

	return &models.StateUpdate{
		GraphQL: &scratch,
		TokenUsage: []models.UsageRecord{
			accounting.MakeUsageRecord("classify_query", tools.AtlasGraphQL, model, usage),
		},
	}, map[string]any{
		"query_type": scratch.QueryType,
		"rejected":   scratch.Rejected,
	}, nil
}

// extractEntities pulls the entities the query type needs out of the
// question. Skipped for rejected questions.
func (p *Pipeline) extractEntities(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	scratch := rt.State.GraphQL
	if scratch.Rejected {
		return nil, nil, nil
	}

	client, model, err := p.registry.ClientFor(config.PromptGraphQLEntityExtract)
	if err != nil {
		return nil, nil, err
	}

	servicesCatalog := ""
	if strings.Contains(strings.ToLower(scratch.Question), "service") {
		servicesCatalog = p.catalog.ServicesCatalogText()
	}

	var parsed *models.GraphQLEntities
	var usage models.TokenUsage
	err = rt.Timer.LLM(func() error {
		parsed, usage, err = llm.GenerateStructured[models.GraphQLEntities](
			ctx, client, model, "",
			prompts.GraphQLEntityExtraction(scratch.Question, scratch.QueryType, scratch.Context, servicesCatalog))
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("entity extraction failed: %w", err)
	}

	scratch.Entities = parsed
	return &models.StateUpdate{
		GraphQL: &scratch,
		TokenUsage: []models.UsageRecord{
			accounting.MakeUsageRecord("extract_entities", tools.AtlasGraphQL, model, usage),
		},
	}, map[string]any{
		"entities": parsed,
	}, nil
}

// idPick is the structured output of candidate disambiguation.
type idPick struct {
	ID string `json:"id" jsonschema:"description=The id of the best matching candidate"`
}

// resolveIDs maps extracted entities to canonical Atlas ids: exact
// match, fuzzy match, then an LLM pick among remaining candidates.
func (p *Pipeline) resolveIDs(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	scratch := rt.State.GraphQL
	if scratch.Rejected || scratch.Entities == nil {
		return nil, nil, nil
	}

	resolved := make(map[string]string)
	var usageRecords []models.UsageRecord

	resolve := func(entityType, ref string, candidates []Candidate) error {
		switch len(candidates) {
		case 0:
			return nil
		case 1:
			resolved[entityType] = candidates[0].ID
			return nil
		}
		if candidates[0].Score >= 1 {
			resolved[entityType] = candidates[0].ID
			return nil
		}

		if len(candidates) > 5 {
			candidates = candidates[:5]
		}
		var listing strings.Builder
		for _, c := range candidates {
			listing.WriteString(fmt.Sprintf("%s: %s\n", c.ID, c.Name))
		}

		client, model, err := p.registry.ClientFor(config.PromptIDResolutionSelection)
		if err != nil {
			return err
		}
		var parsed *idPick
		var usage models.TokenUsage
		err = rt.Timer.LLM(func() error {
			parsed, usage, err = llm.GenerateStructured[idPick](
				ctx, client, model, "",
				prompts.IDResolutionSelection(entityType, ref, scratch.Question, listing.String()))
			return err
		})
		if err != nil {
			return fmt.Errorf("id disambiguation for %s failed: %w", entityType, err)
		}
		usageRecords = append(usageRecords,
			accounting.MakeUsageRecord("resolve_ids", tools.AtlasGraphQL, model, usage))
		resolved[entityType] = parsed.ID
		return nil
	}

	e := scratch.Entities
	if e.Country != "" {
		if err := resolve("country", e.Country, p.catalog.ResolveCountry(e.Country)); err != nil {
			return nil, nil, err
		}
	}
	if e.PartnerCountry != "" {
		if err := resolve("partner_country", e.PartnerCountry, p.catalog.ResolveCountry(e.PartnerCountry)); err != nil {
			return nil, nil, err
		}
	}
	if e.Product != "" {
		if err := resolve("product", e.Product, p.catalog.ResolveProduct(e.Product, "")); err != nil {
			return nil, nil, err
		}
	}
	if e.ServicesCategory != "" {
		if id := p.catalog.ServicesCategoryID(e.ServicesCategory); id != "" {
			resolved["services_category"] = id
		}
	}

	scratch.ResolvedIDs = resolved
	return &models.StateUpdate{
		GraphQL:    &scratch,
		TokenUsage: usageRecords,
	}, map[string]any{
		"resolved_ids": resolved,
	}, nil
}

// buildAndExecute selects the sub-API, binds the template, and posts
// the query. API failures land in last_error without retry.
func (p *Pipeline) buildAndExecute(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	scratch := rt.State.GraphQL
	if scratch.Rejected {
		return nil, nil, nil
	}

	if _, ok := scratch.ResolvedIDs["country"]; !ok {
		scratch.Success = false
		return &models.StateUpdate{
			GraphQL:   &scratch,
			LastError: models.ErrString("could not resolve the country in the question"),
		}, map[string]any{"success": false}, nil
	}
	if !p.budget.Consume() {
		scratch.Success = false
		return &models.StateUpdate{
			GraphQL:   &scratch,
			LastError: models.ErrString("the Atlas API request budget is exhausted"),
		}, map[string]any{"success": false}, nil
	}

	scratch.APITarget = apiTargetFor(scratch.QueryType)
	query := queryFor(scratch.QueryType)
	if query == "" {
		return nil, nil, fmt.Errorf("no query template for type %s", scratch.QueryType)
	}

	year := 0
	direction := "exports"
	if scratch.Entities != nil {
		year = scratch.Entities.Year
		if scratch.Entities.Direction != "" {
			direction = scratch.Entities.Direction
		}
	}
	if year == 0 {
		year = p.cfg.GraphQLMaxYear
	}
	variables := map[string]any{
		"countryId": scratch.ResolvedIDs["country"],
		"year":      year,
		"direction": strings.ToUpper(strings.TrimSuffix(direction, "s")),
	}

	started := time.Now()
	var data []byte
	var execErr error
	_ = rt.Timer.IO(func() error {
		data, execErr = p.client.Execute(ctx, query, variables)
		return execErr
	})
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	scratch.ExecutionTimeMS = time.Since(started).Milliseconds()

	if execErr != nil {
		scratch.Success = false
		return &models.StateUpdate{
			GraphQL:   &scratch,
			LastError: models.ErrString(execErr.Error()),
		}, map[string]any{
			"success":    false,
			"api_target": scratch.APITarget,
			"last_error": execErr.Error(),
		}, nil
	}

	scratch.Success = true
	scratch.Response = data
	return &models.StateUpdate{GraphQL: &scratch, LastError: models.ErrString("")}, map[string]any{
		"success":           true,
		"api_target":        scratch.APITarget,
		"execution_time_ms": scratch.ExecutionTimeMS,
	}, nil
}

// formatResults derives the summary and atlas links, emits the tool
// output, and counts the request against the per-turn budget.
func (p *Pipeline) formatResults(_ context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	ai := rt.State.LastAIMessage()
	if ai == nil || !ai.HasToolCalls() {
		return nil, nil, fmt.Errorf("graphql pipeline lost its originating tool call")
	}
	first := ai.ToolCalls[0]
	scratch := rt.State.GraphQL

	var content string
	switch {
	case scratch.Rejected:
		content = fmt.Sprintf("This question cannot be answered via the Atlas API: %s Consider query_tool instead.", scratch.RejectionReason)
	case !scratch.Success:
		content = fmt.Sprintf("The Atlas API query failed: %s", rt.State.LastError)
	default:
		formatted, err := formatResponse(scratch.QueryType, scratch.Response, scratch.Entities)
		if err != nil {
			content = fmt.Sprintf("The Atlas API returned data that could not be summarized: %v", err)
		} else {
			scratch.Formatted = formatted
			scratch.AtlasLinks = buildAtlasLinks(scratch.QueryType, scratch.ResolvedIDs, scratch.Entities)
			content = formatted
			if len(scratch.AtlasLinks) > 0 {
				var sb strings.Builder
				sb.WriteString(content)
				sb.WriteString("\n\nExplore further:")
				for _, link := range scratch.AtlasLinks {
					sb.WriteString(fmt.Sprintf("\n- %s: %s", link.Label, link.URL))
				}
				content = sb.String()
			}
		}
	}

	for _, delta := range splitForStreaming(content) {
		rt.Emit(events.ToolOutput(delta))
	}

	messages := []models.Message{models.NewToolMessage(content, first.ID, first.Name)}
	messages = append(messages, agent.RejectExtraToolCalls(ai)...)

	return &models.StateUpdate{
		GraphQL:        &scratch,
		AppendMessages: messages,
		QueriesDelta:   1,
	}, map[string]any{
		"success":     scratch.Success,
		"atlas_links": scratch.AtlasLinks,
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
