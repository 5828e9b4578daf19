// Package events defines the typed streaming protocol emitted by the
// graph executor and consumed by the API layer.
//
// ════════════════════════════════════════════════════════════════
// Emission ordering guarantees
// ════════════════════════════════════════════════════════════════
//
// For a single turn, events are emitted in causal order:
//
//   - node_start for node X always precedes pipeline_state with
//     stage=X.
//   - tool_call precedes the first node_start of the invoked pipeline.
//   - agent_talk deltas only follow the agent node in its final
//     (non-tool-calling) invocation.
//   - tool_output deltas carry the tool result visible to consumers,
//     token by token.
//
// A consumer can fully reconstruct the agent's plan, each tool result,
// and the final answer from the stream alone. The stream channel is
// closed by the executor at end of turn.
// ════════════════════════════════════════════════════════════════
package events

import "time"

// Stream message types.
const (
	MessageTypeNodeStart     = "node_start"
	MessageTypePipelineState = "pipeline_state"
	MessageTypeToolCall      = "tool_call"
	MessageTypeToolOutput    = "tool_output"
	MessageTypeAgentTalk     = "agent_talk"
)

// StreamData is the tagged envelope for all stream events.
// MessageType discriminates which of the optional fields are set.
type StreamData struct {
	MessageType string `json:"message_type"`

	// node_start
	Node  string `json:"node,omitempty"`
	Label string `json:"label,omitempty"`

	// pipeline_state
	Stage   string         `json:"stage,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`

	// tool_call
	ToolCall string `json:"tool_call,omitempty"`

	// tool_output / agent_talk
	Content string `json:"content,omitempty"`

	Timestamp string `json:"timestamp"` // RFC3339Nano
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// NodeStart builds a node_start event, emitted immediately before a
// node body executes.
func NodeStart(node, label string) StreamData {
	return StreamData{MessageType: MessageTypeNodeStart, Node: node, Label: label, Timestamp: now()}
}

// PipelineState builds a pipeline_state event carrying node-specific
// structured data, emitted after a pipeline node completes.
func PipelineState(stage string, payload map[string]any) StreamData {
	return StreamData{MessageType: MessageTypePipelineState, Stage: stage, Payload: payload, Timestamp: now()}
}

// ToolCallEvent builds a tool_call event, emitted when the agent decides
// to invoke a tool.
func ToolCallEvent(toolName string) StreamData {
	return StreamData{MessageType: MessageTypeToolCall, ToolCall: toolName, Timestamp: now()}
}

// ToolOutput builds a tool_output delta event.
func ToolOutput(content string) StreamData {
	return StreamData{MessageType: MessageTypeToolOutput, Content: content, Timestamp: now()}
}

// AgentTalk builds an agent_talk delta event for the final answer.
func AgentTalk(content string) StreamData {
	return StreamData{MessageType: MessageTypeAgentTalk, Content: content, Timestamp: now()}
}
