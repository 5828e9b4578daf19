// Package agent implements the tool-selecting reasoning node at the
// root of the graph, plus the per-turn limit node.
package agent

import (
	"context"
	"fmt"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/accounting"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/config"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/events"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/graph"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/llm"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/prompts"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/tools"
)

// NodeName is the agent node's graph name.
const NodeName = "agent"

// LimitNodeName is the max-queries-exceeded node's graph name.
const LimitNodeName = "max_queries_exceeded"

// APIBudget is the GraphQL request budget consulted when assembling the
// tool set.
type APIBudget interface {
	Available() bool
	Status() (used, max int)
}

// Agent holds the dependencies of the reasoning node.
type Agent struct {
	registry *llm.Registry
	cfg      *config.Config
	budget   APIBudget
}

// New creates the agent. budget may be nil when atlas_graphql is never
// offered.
func New(registry *llm.Registry, cfg *config.Config, budget APIBudget) *Agent {
	return &Agent{registry: registry, cfg: cfg, budget: budget}
}

// Node returns the reasoning node for the executor.
func (a *Agent) Node() graph.Node {
	return graph.Node{Name: NodeName, Label: "Thinking", Run: a.run}
}

// run makes one LLM invocation that either answers the user or calls a
// tool. Text deltas are buffered and emitted as agent_talk only when
// the response carries no tool calls.
func (a *Agent) run(ctx context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
	client, model, err := a.registry.ClientFor(config.PromptAgentSystem)
	if err != nil {
		return nil, nil, err
	}

	toolDefs := a.toolSet()

	var resp *llm.Response
	var deltas []string
	err = rt.Timer.LLM(func() error {
		chunks, err := client.Generate(ctx, &llm.Request{
			Model:    model,
			System:   a.systemPrompt(),
			Messages: rt.State.Messages,
			Tools:    toolDefs,
		})
		if err != nil {
			return err
		}
		resp, err = llm.CollectWithCallback(ctx, chunks, func(delta string) {
			deltas = append(deltas, delta)
		})
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("agent LLM invocation failed: %w", err)
	}

	if len(resp.ToolCalls) == 0 {
		for _, delta := range deltas {
			rt.Emit(events.AgentTalk(delta))
		}
	}

	ai := models.NewAIMessage(resp.Text, resp.ToolCalls, &resp.Usage)
	return &models.StateUpdate{
		AppendMessages: []models.Message{ai},
		TokenUsage: []models.UsageRecord{
			accounting.MakeUsageRecord(NodeName, "", model, resp.Usage),
		},
	}, nil, nil
}

// toolSet assembles the tool definitions for the configured mode,
// dropping atlas_graphql when the API budget is exhausted.
func (a *Agent) toolSet() []llm.ToolDefinition {
	var defs []llm.ToolDefinition
	switch a.cfg.AgentMode {
	case config.AgentModeSQLOnly:
		defs = append(defs, tools.QueryToolDefinition())
	case config.AgentModeGraphQLOnly:
		if a.budgetAvailable() {
			defs = append(defs, tools.AtlasGraphQLDefinition())
		}
	default: // auto and graphql_sql expose both data tools
		defs = append(defs, tools.QueryToolDefinition())
		if a.budgetAvailable() {
			defs = append(defs, tools.AtlasGraphQLDefinition())
		}
	}
	defs = append(defs, tools.DocsToolDefinition())
	return defs
}

func (a *Agent) budgetAvailable() bool {
	return a.budget == nil || a.budget.Available()
}

func (a *Agent) systemPrompt() string {
	params := prompts.AgentSystemParams{
		IncludeDocs:    true,
		SQLMaxYear:     a.cfg.SQLMaxYear,
		GraphQLMaxYear: a.cfg.GraphQLMaxYear,
	}
	switch a.cfg.AgentMode {
	case config.AgentModeSQLOnly:
		params.SQLOnly = true
	case config.AgentModeGraphQLOnly:
		params.GraphQLOnly = true
	default:
		params.DualTool = true
		if a.budget != nil {
			used, max := a.budget.Status()
			params.BudgetRemaining = max - used
			params.BudgetMax = max
			params.BudgetExhausted = !a.budget.Available()
		}
	}
	return prompts.AgentSystem(params)
}

// RejectExtraToolCalls builds the rejection ToolMessages for every tool
// call after the first, telling the model parallel calls are not
// supported.
func RejectExtraToolCalls(ai *models.Message) []models.Message {
	if ai == nil || len(ai.ToolCalls) < 2 {
		return nil
	}
	result := make([]models.Message, 0, len(ai.ToolCalls)-1)
	for _, tc := range ai.ToolCalls[1:] {
		result = append(result, models.NewToolMessage(
			"Parallel tool calls are not supported. Only the first tool call was executed; issue this call again on its own if you still need it.",
			tc.ID, tc.Name))
	}
	return result
}

// LimitNode short-circuits a tool call once queries_executed reaches
// the per-turn limit: the first call gets a limit message, the rest get
// parallel rejections, and queries_executed is not incremented.
func LimitNode(maxUses int) graph.Node {
	return graph.Node{
		Name:  LimitNodeName,
		Label: "Query limit reached",
		Run: func(_ context.Context, rt *graph.Runtime) (*models.StateUpdate, map[string]any, error) {
			ai := rt.State.LastAIMessage()
			if ai == nil || !ai.HasToolCalls() {
				return nil, nil, nil
			}
			first := ai.ToolCalls[0]
			messages := []models.Message{models.NewToolMessage(
				fmt.Sprintf("The per-turn query limit (%d) is exhausted. Answer the user with the data you already have.", maxUses),
				first.ID, first.Name)}
			messages = append(messages, RejectExtraToolCalls(ai)...)
			return &models.StateUpdate{AppendMessages: messages}, map[string]any{
				"limit": maxUses,
			}, nil
		},
	}
}
