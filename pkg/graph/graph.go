// Package graph compiles the agent and tool pipelines into a static
// routed graph and drives turns through it with checkpointing and
// streaming.
package graph

import (
	"context"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/accounting"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/events"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// Runtime is what a node body receives: a read-only view of the merged
// state, the event emitter, and the timer for marking LLM and I/O
// sub-intervals.
type Runtime struct {
	State *models.TurnState
	Emit  func(events.StreamData)
	Timer *accounting.NodeTimer
}

// NodeFunc is one node body. It returns a partial state update and an
// optional pipeline_state payload the executor emits after the merge.
type NodeFunc func(ctx context.Context, rt *Runtime) (*models.StateUpdate, map[string]any, error)

// Node is a named step in the graph.
type Node struct {
	Name  string
	Label string
	Run   NodeFunc
}

// Pipeline is the ordered node list backing one tool. The executor
// routes the first tool call of an agent message to the pipeline whose
// Tool matches, runs its nodes in order, and returns to the agent.
type Pipeline struct {
	Tool  string
	Nodes []Node
}
