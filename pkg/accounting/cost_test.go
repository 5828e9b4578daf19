package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

func TestPricingForExactMatch(t *testing.T) {
	p := PricingFor("gpt-4o-mini")
	assert.InDelta(t, 0.15, p.Input, 1e-9)
}

func TestPricingForStripsDateSuffix(t *testing.T) {
	p := PricingFor("claude-sonnet-4-2025-05-14")
	assert.InDelta(t, 3.00, p.Input, 1e-9)
	assert.InDelta(t, 15.00, p.Output, 1e-9)
}

func TestPricingForUnknownModelUsesDefault(t *testing.T) {
	p := PricingFor("some-future-model")
	assert.Equal(t, defaultPricing, p)
}

func TestCostOfWithoutCacheDetails(t *testing.T) {
	record := models.UsageRecord{
		ModelName:    "gpt-4o-mini",
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	}
	// 1M input at $0.15 plus 1M output at $0.60.
	assert.InDelta(t, 0.75, CostOf(record), 1e-9)
}

func TestCostOfCacheAwareFormula(t *testing.T) {
	record := models.UsageRecord{
		ModelName:    "claude-sonnet-4",
		InputTokens:  1_000_000,
		OutputTokens: 0,
		InputDetails: &models.InputTokenDetails{
			CacheRead:     600_000,
			CacheCreation: 200_000,
		},
	}
	// fresh = 200k at $3, cache read 600k at $0.30, creation 200k at $3.75.
	expected := (200_000*3.00 + 600_000*0.30 + 200_000*3.75) / 1_000_000
	assert.InDelta(t, expected, CostOf(record), 1e-9)
}

func TestCostOfClampsNegativeFreshTokens(t *testing.T) {
	record := models.UsageRecord{
		ModelName:   "claude-sonnet-4",
		InputTokens: 100,
		InputDetails: &models.InputTokenDetails{
			CacheRead:     80,
			CacheCreation: 50,
		},
	}
	expected := (80*0.30 + 50*3.75) / 1_000_000
	assert.InDelta(t, expected, CostOf(record), 1e-9)
}

func TestCostIsMonotonicInTokenCounts(t *testing.T) {
	base := models.UsageRecord{
		ModelName:    "gpt-4o",
		InputTokens:  1000,
		OutputTokens: 500,
	}
	baseCost := CostOf(base)

	moreInput := base
	moreInput.InputTokens += 100
	assert.GreaterOrEqual(t, CostOf(moreInput), baseCost)

	moreOutput := base
	moreOutput.OutputTokens += 100
	assert.GreaterOrEqual(t, CostOf(moreOutput), baseCost)
}

func TestEstimateCostAggregatesByPipeline(t *testing.T) {
	records := []models.UsageRecord{
		{Node: "agent", ModelName: "gpt-4o", InputTokens: 1000, OutputTokens: 100},
		{Node: "generate_sql", ToolPipeline: "query_tool", ModelName: "gpt-4o", InputTokens: 2000, OutputTokens: 200},
		{Node: "classify_query", ToolPipeline: "atlas_graphql", ModelName: "gpt-4o-mini", InputTokens: 500, OutputTokens: 50},
	}

	byPipeline, total := EstimateCost(records)

	assert.Len(t, byPipeline, 3)
	assert.Contains(t, byPipeline, "agent")
	assert.Contains(t, byPipeline, "query_tool")
	assert.Contains(t, byPipeline, "atlas_graphql")

	var sum float64
	for _, c := range byPipeline {
		sum += c
	}
	assert.InDelta(t, total, sum, 1e-9)
}

func TestSummarizeUsage(t *testing.T) {
	records := []models.UsageRecord{
		{Node: "agent", InputTokens: 100, OutputTokens: 20, TotalTokens: 120},
		{Node: "generate_sql", ToolPipeline: "query_tool", InputTokens: 300, OutputTokens: 30, TotalTokens: 330},
	}

	byPipeline, grand := Summarize(records)

	assert.Equal(t, 450, grand.TotalTokens)
	assert.Equal(t, 2, grand.Records)
	assert.Equal(t, 120, byPipeline["agent"].TotalTokens)
	assert.Equal(t, 330, byPipeline["query_tool"].TotalTokens)
}

func TestMakeUsageRecordDerivesTotal(t *testing.T) {
	record := MakeUsageRecord("agent", "", "gpt-4o", models.TokenUsage{
		InputTokens:  10,
		OutputTokens: 5,
	})
	assert.Equal(t, 15, record.TotalTokens)
}
