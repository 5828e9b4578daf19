package accounting

import (
	"regexp"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// Pricing holds per-1M-token rates in USD.
type Pricing struct {
	Input         float64
	Output        float64
	CacheRead     float64
	CacheCreation float64
}

// pricingTable maps model names to rates. Keys without a date suffix
// also match dated variants via the suffix-strip fallback.
var pricingTable = map[string]Pricing{
	"claude-sonnet-4":  {Input: 3.00, Output: 15.00, CacheRead: 0.30, CacheCreation: 3.75},
	"claude-haiku-3-5": {Input: 0.80, Output: 4.00, CacheRead: 0.08, CacheCreation: 1.00},
	"gpt-4o":           {Input: 2.50, Output: 10.00, CacheRead: 1.25},
	"gpt-4o-mini":      {Input: 0.15, Output: 0.60, CacheRead: 0.075},
	"gemini-2.0-flash": {Input: 0.10, Output: 0.40, CacheRead: 0.025},
	"gemini-1.5-pro":   {Input: 1.25, Output: 5.00, CacheRead: 0.3125},
}

// defaultPricing is used when no table entry matches even after the
// date-suffix strip. Deliberately mid-range so unknown models still
// produce a plausible estimate.
var defaultPricing = Pricing{Input: 3.00, Output: 15.00, CacheRead: 0.30, CacheCreation: 3.75}

var dateSuffix = regexp.MustCompile(`-\d{4}-\d{2}-\d{2}$`)

// PricingFor resolves rates for a model name: exact match first, then
// with a trailing -YYYY-MM-DD date suffix stripped, then the default.
func PricingFor(modelName string) Pricing {
	if p, ok := pricingTable[modelName]; ok {
		return p
	}
	if stripped := dateSuffix.ReplaceAllString(modelName, ""); stripped != modelName {
		if p, ok := pricingTable[stripped]; ok {
			return p
		}
	}
	return defaultPricing
}

// CostOf estimates the USD cost of a single record using the
// cache-aware formula when input token details are present.
func CostOf(r models.UsageRecord) float64 {
	p := PricingFor(r.ModelName)

	var inputCost float64
	if d := r.InputDetails; d != nil {
		fresh := r.InputTokens - d.CacheRead - d.CacheCreation
		if fresh < 0 {
			fresh = 0
		}
		inputCost = float64(fresh)*p.Input +
			float64(d.CacheRead)*p.CacheRead +
			float64(d.CacheCreation)*p.CacheCreation
	} else {
		inputCost = float64(r.InputTokens) * p.Input
	}

	outputCost := float64(r.OutputTokens) * p.Output
	return (inputCost + outputCost) / 1_000_000
}

// EstimateCost totals cost per pipeline plus the grand total. Records
// without a pipeline total under "agent".
func EstimateCost(records []models.UsageRecord) (byPipeline map[string]float64, total float64) {
	byPipeline = make(map[string]float64)
	for _, r := range records {
		key := r.ToolPipeline
		if key == "" {
			key = "agent"
		}
		cost := CostOf(r)
		byPipeline[key] += cost
		total += cost
	}
	return byPipeline, total
}
