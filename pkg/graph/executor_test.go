package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/checkpoint"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/events"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/tools"
)

// scriptedAgent answers with tool calls for the first n invocations,
// then with a plain final answer.
func scriptedAgent(toolName string, toolInvocations int) Node {
	calls := 0
	return Node{
		Name:  "agent",
		Label: "Thinking",
		Run: func(_ context.Context, rt *Runtime) (*models.StateUpdate, map[string]any, error) {
			calls++
			if calls <= toolInvocations {
				ai := models.NewAIMessage("", []models.ToolCall{
					{ID: "call_1", Name: toolName, Args: []byte(`{"question":"q"}`)},
				}, nil)
				return &models.StateUpdate{AppendMessages: []models.Message{ai}}, nil, nil
			}
			rt.Emit(events.AgentTalk("final answer"))
			final := models.NewAIMessage("final answer", nil, nil)
			return &models.StateUpdate{AppendMessages: []models.Message{final}}, nil, nil
		},
	}
}

func answerPipeline(tool string) *Pipeline {
	return &Pipeline{
		Tool: tool,
		Nodes: []Node{
			{
				Name:  "run_tool",
				Label: "Running tool",
				Run: func(_ context.Context, rt *Runtime) (*models.StateUpdate, map[string]any, error) {
					ai := rt.State.LastAIMessage()
					msg := models.NewToolMessage("tool result", ai.ToolCalls[0].ID, tool)
					return &models.StateUpdate{
						AppendMessages: []models.Message{msg},
						QueriesDelta:   1,
					}, map[string]any{"rows": 3}, nil
				},
			},
		},
	}
}

func limitNode() Node {
	return Node{
		Name:  "max_queries_exceeded",
		Label: "Query limit reached",
		Run: func(_ context.Context, rt *Runtime) (*models.StateUpdate, map[string]any, error) {
			ai := rt.State.LastAIMessage()
			msg := models.NewToolMessage("limit exhausted", ai.ToolCalls[0].ID, ai.ToolCalls[0].Name)
			return &models.StateUpdate{AppendMessages: []models.Message{msg}}, nil, nil
		},
	}
}

func collectEvents() (func(events.StreamData), *[]events.StreamData) {
	var captured []events.StreamData
	return func(e events.StreamData) { captured = append(captured, e) }, &captured
}

func TestExecuteTurnTerminatesOnPlainAnswer(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(scriptedAgent(tools.QueryTool, 0), limitNode(), nil, store, 3)
	emit, captured := collectEvents()

	state, err := exec.ExecuteTurn(context.Background(), "t1", "hello", TurnOptions{}, emit)
	require.NoError(t, err)

	require.Len(t, state.Messages, 2)
	assert.Equal(t, models.RoleHuman, state.Messages[0].Role)
	assert.Equal(t, "final answer", state.Messages[1].Content)
	assert.Equal(t, 0, state.QueriesExecuted)

	var talk []string
	for _, e := range *captured {
		if e.MessageType == events.MessageTypeAgentTalk {
			talk = append(talk, e.Content)
		}
	}
	assert.Equal(t, []string{"final answer"}, talk)
}

func TestExecuteTurnRoutesToolCallThroughPipeline(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(
		scriptedAgent(tools.QueryTool, 1),
		limitNode(),
		[]*Pipeline{answerPipeline(tools.QueryTool)},
		store, 3)
	emit, captured := collectEvents()

	state, err := exec.ExecuteTurn(context.Background(), "t1", "question", TurnOptions{}, emit)
	require.NoError(t, err)

	assert.Equal(t, 1, state.QueriesExecuted)

	// tool_call precedes the pipeline's node_start, which precedes its
	// pipeline_state.
	var order []string
	for _, e := range *captured {
		switch e.MessageType {
		case events.MessageTypeToolCall:
			order = append(order, "tool_call")
		case events.MessageTypeNodeStart:
			if e.Node == "run_tool" {
				order = append(order, "node_start")
			}
		case events.MessageTypePipelineState:
			if e.Stage == "run_tool" {
				order = append(order, "pipeline_state:"+e.Stage)
			}
		}
	}
	assert.Equal(t, []string{"tool_call", "node_start", "pipeline_state:run_tool"}, order)
}

func TestEveryNodeStartClosedByPipelineState(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(
		scriptedAgent(tools.DocsTool, 1),
		limitNode(),
		[]*Pipeline{{
			Tool: tools.DocsTool,
			Nodes: []Node{{
				// Returns a nil payload, like skip-path pipeline nodes.
				Name: "docs",
				Run: func(_ context.Context, rt *Runtime) (*models.StateUpdate, map[string]any, error) {
					ai := rt.State.LastAIMessage()
					msg := models.NewToolMessage("doc text", ai.ToolCalls[0].ID, tools.DocsTool)
					return &models.StateUpdate{AppendMessages: []models.Message{msg}}, nil, nil
				},
			}},
		}},
		store, 3)
	emit, captured := collectEvents()

	_, err := exec.ExecuteTurn(context.Background(), "t1", "what is eci", TurnOptions{}, emit)
	require.NoError(t, err)

	// Nodes run strictly sequentially, so the node_start sequence and
	// the pipeline_state stage sequence must match one for one. That
	// includes the agent node and the nil-payload docs node.
	var starts, stages []string
	for _, e := range *captured {
		switch e.MessageType {
		case events.MessageTypeNodeStart:
			starts = append(starts, e.Node)
		case events.MessageTypePipelineState:
			stages = append(stages, e.Stage)
		}
	}
	assert.Equal(t, []string{"agent", "docs", "agent"}, starts)
	assert.Equal(t, starts, stages)
}

func failingPipeline(tool string) *Pipeline {
	return &Pipeline{
		Tool: tool,
		Nodes: []Node{{
			Name:  "run_tool",
			Label: "Running tool",
			Run: func(_ context.Context, _ *Runtime) (*models.StateUpdate, map[string]any, error) {
				return nil, nil, fmt.Errorf("model request timed out")
			},
		}},
	}
}

func TestExecuteTurnAnswersToolCallsWhenPipelineFails(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(
		scriptedAgent(tools.QueryTool, 1),
		limitNode(),
		[]*Pipeline{failingPipeline(tools.QueryTool)},
		store, 3)
	emit, _ := collectEvents()

	_, err := exec.ExecuteTurn(context.Background(), "t1", "question", TurnOptions{}, emit)
	require.Error(t, err)

	// The failure is still checkpointed with the tool call answered, so
	// the rehydrated history never carries an unanswered tool call.
	state, getErr := store.Get(context.Background(), checkpoint.Ref{ThreadID: "t1"})
	require.NoError(t, getErr)
	require.NotNil(t, state)

	last := state.Messages[len(state.Messages)-1]
	assert.Equal(t, models.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Contains(t, last.Content, "failed")
	assert.NotEmpty(t, state.LastError)

	answered := make(map[string]bool)
	for _, msg := range state.Messages {
		if msg.Role == models.RoleTool {
			answered[msg.ToolCallID] = true
		}
	}
	for _, msg := range state.Messages {
		for _, tc := range msg.ToolCalls {
			assert.True(t, answered[tc.ID], "tool call %s has no result", tc.ID)
		}
	}

	// A follow-up turn on the same thread completes normally.
	exec2 := NewExecutor(scriptedAgent(tools.QueryTool, 0), limitNode(), nil, store, 3)
	next, err := exec2.ExecuteTurn(context.Background(), "t1", "try again", TurnOptions{}, emit)
	require.NoError(t, err)
	assert.Equal(t, "final answer", next.Messages[len(next.Messages)-1].Content)
}

func TestExecuteTurnRoutesToLimitNodeWhenBudgetSpent(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(
		scriptedAgent(tools.QueryTool, 2),
		limitNode(),
		[]*Pipeline{answerPipeline(tools.QueryTool)},
		store, 1)
	emit, captured := collectEvents()

	state, err := exec.ExecuteTurn(context.Background(), "t1", "question", TurnOptions{}, emit)
	require.NoError(t, err)

	// One real execution, then the limit node instead of a second.
	assert.Equal(t, 1, state.QueriesExecuted)

	var limitRan bool
	for _, e := range *captured {
		if e.MessageType == events.MessageTypeNodeStart && e.Node == "max_queries_exceeded" {
			limitRan = true
		}
	}
	assert.True(t, limitRan)
}

func TestExecuteTurnDocsToolIgnoresBudget(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(
		scriptedAgent(tools.DocsTool, 1),
		limitNode(),
		[]*Pipeline{{
			Tool: tools.DocsTool,
			Nodes: []Node{{
				Name: "docs",
				Run: func(_ context.Context, rt *Runtime) (*models.StateUpdate, map[string]any, error) {
					ai := rt.State.LastAIMessage()
					msg := models.NewToolMessage("doc text", ai.ToolCalls[0].ID, tools.DocsTool)
					return &models.StateUpdate{AppendMessages: []models.Message{msg}}, nil, nil
				},
			}},
		}},
		store, 0)
	emit, captured := collectEvents()

	state, err := exec.ExecuteTurn(context.Background(), "t1", "what is eci", TurnOptions{}, emit)
	require.NoError(t, err)

	assert.Equal(t, 0, state.QueriesExecuted)
	for _, e := range *captured {
		assert.NotEqual(t, "max_queries_exceeded", e.Node)
	}
}

func TestExecuteTurnRejectsUnknownTool(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(scriptedAgent("made_up_tool", 1), limitNode(), nil, store, 3)
	emit, _ := collectEvents()

	state, err := exec.ExecuteTurn(context.Background(), "t1", "question", TurnOptions{}, emit)
	require.NoError(t, err)

	var rejection *models.Message
	for i := range state.Messages {
		if state.Messages[i].Role == models.RoleTool {
			rejection = &state.Messages[i]
		}
	}
	require.NotNil(t, rejection)
	assert.Contains(t, rejection.Content, "not available")
}

func TestExecuteTurnCheckpointsEveryNode(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(
		scriptedAgent(tools.QueryTool, 1),
		limitNode(),
		[]*Pipeline{answerPipeline(tools.QueryTool)},
		store, 3)
	emit, _ := collectEvents()

	_, err := exec.ExecuteTurn(context.Background(), "t1", "question", TurnOptions{}, emit)
	require.NoError(t, err)

	tuples, err := store.List(context.Background(), checkpoint.Ref{ThreadID: "t1"})
	require.NoError(t, err)

	// turn_start, agent, run_tool, agent.
	require.Len(t, tuples, 4)
	assert.Equal(t, "agent", tuples[0].Metadata["node"])
	assert.Equal(t, "turn_start", tuples[3].Metadata["node"])
}

func TestExecuteTurnResumesFromCheckpoint(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := NewExecutor(scriptedAgent(tools.QueryTool, 0), limitNode(), nil, store, 3)
	emit, _ := collectEvents()

	_, err := exec.ExecuteTurn(context.Background(), "t1", "first question", TurnOptions{}, emit)
	require.NoError(t, err)

	exec2 := NewExecutor(scriptedAgent(tools.QueryTool, 0), limitNode(), nil, store, 3)
	state, err := exec2.ExecuteTurn(context.Background(), "t1", "second question", TurnOptions{}, emit)
	require.NoError(t, err)

	// History carries across turns: human, ai, human, ai.
	require.Len(t, state.Messages, 4)
	assert.Equal(t, "first question", state.Messages[0].Content)
	assert.Equal(t, "second question", state.Messages[2].Content)
}

func TestExecuteTurnHonorsCancellation(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	blocked := Node{
		Name: "agent",
		Run: func(ctx context.Context, _ *Runtime) (*models.StateUpdate, map[string]any, error) {
			<-ctx.Done()
			return &models.StateUpdate{}, nil, nil
		},
	}
	exec := NewExecutor(blocked, limitNode(), nil, store, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.ExecuteTurn(ctx, "t1", "question", TurnOptions{}, func(events.StreamData) {})
	assert.ErrorIs(t, err, context.Canceled)
}
