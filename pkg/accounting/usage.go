// Package accounting builds per-node usage and timing records and
// aggregates them into cost and latency summaries for a turn.
package accounting

import (
	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// MakeUsageRecord builds a usage record from raw token counts.
func MakeUsageRecord(node, pipeline, modelName string, usage models.TokenUsage) models.UsageRecord {
	total := usage.TotalTokens
	if total == 0 {
		total = usage.InputTokens + usage.OutputTokens
	}
	return models.UsageRecord{
		Node:         node,
		ToolPipeline: pipeline,
		ModelName:    modelName,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  total,
		InputDetails: usage.InputDetails,
	}
}

// UsageFromMessage builds a usage record from the usage metadata
// attached to an assistant message.
func UsageFromMessage(node, pipeline, modelName string, msg models.Message) models.UsageRecord {
	if msg.Usage == nil {
		return models.UsageRecord{Node: node, ToolPipeline: pipeline, ModelName: modelName}
	}
	return MakeUsageRecord(node, pipeline, modelName, *msg.Usage)
}

// UsageTotals aggregates token counts across records.
type UsageTotals struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Records      int
}

// Summarize aggregates usage by pipeline plus a grand total. Records
// without a pipeline aggregate under "agent".
func Summarize(records []models.UsageRecord) (byPipeline map[string]UsageTotals, grand UsageTotals) {
	byPipeline = make(map[string]UsageTotals)
	for _, r := range records {
		key := r.ToolPipeline
		if key == "" {
			key = "agent"
		}
		t := byPipeline[key]
		t.InputTokens += r.InputTokens
		t.OutputTokens += r.OutputTokens
		t.TotalTokens += r.TotalTokens
		t.Records++
		byPipeline[key] = t

		grand.InputTokens += r.InputTokens
		grand.OutputTokens += r.OutputTokens
		grand.TotalTokens += r.TotalTokens
		grand.Records++
	}
	return byPipeline, grand
}
