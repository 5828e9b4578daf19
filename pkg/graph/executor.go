package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/accounting"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/checkpoint"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/events"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/tools"
)

// Executor drives turns through the compiled graph: agent at the root,
// each tool call routed to its pipeline, every pipeline returning to
// the agent, checkpoints written after every node.
type Executor struct {
	agent       Node
	limitNode   Node
	pipelines   map[string]*Pipeline
	checkpoints checkpoint.Store
	maxUses     int

	// Hard stop on agent invocations per turn, guarding against a
	// model that never stops calling tools after the limit message.
	maxIterations int
}

// NewExecutor compiles the graph. pipelines are keyed by tool name.
func NewExecutor(agent, limitNode Node, pipelines []*Pipeline, store checkpoint.Store, maxUses int) *Executor {
	byTool := make(map[string]*Pipeline, len(pipelines))
	for _, p := range pipelines {
		byTool[p.Tool] = p
	}
	return &Executor{
		agent:         agent,
		limitNode:     limitNode,
		pipelines:     byTool,
		checkpoints:   store,
		maxUses:       maxUses,
		maxIterations: 2*maxUses + 6,
	}
}

// TurnOptions carries per-turn caller overrides.
type TurnOptions struct {
	OverrideSchema    string
	OverrideDirection string
	OverrideMode      string
}

// ExecuteTurn runs one conversational turn: re-hydrate state from the
// latest checkpoint, append the user message, loop agent and pipelines
// until the agent answers without tool calls. Events stream through
// emit in causal order. The returned state is the final checkpointed
// state of the turn.
func (e *Executor) ExecuteTurn(ctx context.Context, threadID, userMessage string, opts TurnOptions, emit func(events.StreamData)) (*models.TurnState, error) {
	log := slog.With("thread_id", threadID)

	state, err := e.checkpoints.Get(ctx, checkpoint.Ref{ThreadID: threadID})
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if state == nil {
		state = &models.TurnState{}
	}

	// Per-turn fields reset; messages and accounting carry across turns.
	state.QueriesExecuted = 0
	state.LastError = ""
	state.RetryCount = 0
	state.OverrideSchema = opts.OverrideSchema
	state.OverrideDirection = opts.OverrideDirection
	state.OverrideMode = opts.OverrideMode

	state.Messages = append(state.Messages, models.NewHumanMessage(userMessage))
	if err := e.writeCheckpoint(ctx, threadID, state, "turn_start"); err != nil {
		return nil, err
	}

	for iteration := 0; iteration < e.maxIterations; iteration++ {
		if err := e.runNode(ctx, threadID, e.agent, "", state, emit); err != nil {
			return nil, err
		}

		ai := state.LastAIMessage()
		if ai == nil || !ai.HasToolCalls() {
			log.Info("Turn complete", "iterations", iteration+1,
				"queries_executed", state.QueriesExecuted)
			return state, nil
		}

		toolName := ai.ToolCalls[0].Name
		emit(events.ToolCallEvent(toolName))

		switch {
		case tools.CountsAgainstBudget(toolName) && state.QueriesExecuted >= e.maxUses:
			if err := e.runNode(ctx, threadID, e.limitNode, "", state, emit); err != nil {
				return nil, e.answerFailedToolCalls(ctx, threadID, state, ai, err)
			}
		default:
			pipeline, ok := e.pipelines[toolName]
			if !ok {
				// The model called a tool that was never offered.
				state.Apply(&models.StateUpdate{
					AppendMessages: rejectUnknownTool(ai),
				})
				if err := e.writeCheckpoint(ctx, threadID, state, "unknown_tool"); err != nil {
					return nil, err
				}
				continue
			}
			for _, node := range pipeline.Nodes {
				if err := e.runNode(ctx, threadID, node, pipeline.Tool, state, emit); err != nil {
					return nil, e.answerFailedToolCalls(ctx, threadID, state, ai, err)
				}
			}
		}
	}

	log.Warn("Turn hit iteration cap without a final answer",
		"iterations", e.maxIterations)
	return state, nil
}

// runNode executes one node: node_start event, timed body, merge,
// checkpoint, then the node's pipeline_state. Nodes without a payload
// still close their node_start with an empty pipeline_state. A
// cancelled context aborts before the partial update is checkpointed.
func (e *Executor) runNode(ctx context.Context, threadID string, node Node, pipeline string, state *models.TurnState, emit func(events.StreamData)) error {
	emit(events.NodeStart(node.Name, node.Label))

	timer := accounting.StartNodeTimer(node.Name, pipeline)
	rt := &Runtime{State: state, Emit: emit, Timer: timer}

	update, payload, err := node.Run(ctx, rt)
	if err != nil {
		return fmt.Errorf("node %s failed: %w", node.Name, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if update == nil {
		update = &models.StateUpdate{}
	}
	update.StepTiming = append(update.StepTiming, timer.Finish())
	state.Apply(update)

	if err := e.writeCheckpoint(ctx, threadID, state, node.Name); err != nil {
		return err
	}
	if payload == nil {
		payload = map[string]any{}
	}
	emit(events.PipelineState(node.Name, payload))
	return nil
}

func (e *Executor) writeCheckpoint(ctx context.Context, threadID string, state *models.TurnState, node string) error {
	_, err := e.checkpoints.Put(ctx, threadID, state, map[string]string{"node": node})
	if err != nil {
		return fmt.Errorf("failed to checkpoint after %s: %w", node, err)
	}
	return nil
}

// answerFailedToolCalls repairs the durable state when a pipeline or
// limit node errors out. The agent message carrying the tool calls was
// already checkpointed, so each call still unanswered gets an error
// ToolMessage, checkpointed before the turn fails. Otherwise the next
// turn would rehydrate an assistant message whose tool calls have no
// results, which the provider APIs reject as malformed. Cancellation
// skips the repair.
func (e *Executor) answerFailedToolCalls(ctx context.Context, threadID string, state *models.TurnState, ai *models.Message, nodeErr error) error {
	if ctx.Err() != nil {
		return nodeErr
	}

	answered := make(map[string]bool)
	for _, msg := range state.Messages {
		if msg.Role == models.RoleTool {
			answered[msg.ToolCallID] = true
		}
	}
	var repairs []models.Message
	for _, tc := range ai.ToolCalls {
		if answered[tc.ID] {
			continue
		}
		repairs = append(repairs, models.NewToolMessage(
			fmt.Sprintf("The %s call failed: %v. Try a different approach.", tc.Name, nodeErr),
			tc.ID, tc.Name))
	}
	if len(repairs) > 0 {
		state.Apply(&models.StateUpdate{
			AppendMessages: repairs,
			LastError:      models.ErrString(nodeErr.Error()),
		})
		if cpErr := e.writeCheckpoint(ctx, threadID, state, "pipeline_error"); cpErr != nil {
			return cpErr
		}
	}
	return nodeErr
}

// rejectUnknownTool answers every tool call on the message so the model
// can recover next iteration.
func rejectUnknownTool(ai *models.Message) []models.Message {
	result := make([]models.Message, 0, len(ai.ToolCalls))
	for _, tc := range ai.ToolCalls {
		result = append(result, models.NewToolMessage(
			fmt.Sprintf("Tool %q is not available. Use one of the offered tools.", tc.Name),
			tc.ID, tc.Name))
	}
	return result
}
