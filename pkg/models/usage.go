package models

// UsageRecord is one per-node, per-LLM-call token accounting entry.
type UsageRecord struct {
	Node          string              `json:"node"`
	ToolPipeline  string              `json:"tool_pipeline,omitempty"`
	ModelName     string              `json:"model_name"`
	InputTokens   int                 `json:"input_tokens"`
	OutputTokens  int                 `json:"output_tokens"`
	TotalTokens   int                 `json:"total_tokens"`
	InputDetails  *InputTokenDetails  `json:"input_token_details,omitempty"`
	OutputDetails *OutputTokenDetails `json:"output_token_details,omitempty"`
}

// OutputTokenDetails breaks output tokens down by kind.
type OutputTokenDetails struct {
	Reasoning int `json:"reasoning"`
}

// TimingRecord is one per-node wall-clock accounting entry.
// OverheadMS is wall time not attributable to LLM or I/O sub-intervals.
type TimingRecord struct {
	Node         string `json:"node"`
	ToolPipeline string `json:"tool_pipeline,omitempty"`
	WallTimeMS   int64  `json:"wall_time_ms"`
	LLMTimeMS    int64  `json:"llm_time_ms"`
	IOTimeMS     int64  `json:"io_time_ms"`
	OverheadMS   int64  `json:"overhead_ms"`
}
