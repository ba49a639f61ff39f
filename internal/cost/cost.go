// Package cost estimates language-model spend from recorded token usage.
package cost

import "github.com/takumi/specgen/internal/domain"

// Pricing is the per-model rate in USD per 1M tokens.
type Pricing struct {
	Input  float64
	Output float64
}

// pricingTable holds the rates for the models the pipeline runs on.
// Unknown models estimate to zero rather than erroring; the history view
// then shows "-".
var pricingTable = map[string]Pricing{
	"claude-haiku-4-5": {
		Input:  1.0,
		Output: 5.0,
	},
	"claude-sonnet-4-5": {
		Input:  3.0,
		Output: 15.0,
	},
}

// Estimate computes the USD cost of a job's token usage for the given
// model. Returns 0 when stats are absent or the model is unknown.
func Estimate(stats *domain.TokenStats, model string) float64 {
	if stats == nil {
		return 0
	}
	pricing, ok := pricingTable[model]
	if !ok {
		return 0
	}

	inputCost := float64(stats.TotalInputTokens) / 1_000_000 * pricing.Input
	outputCost := float64(stats.TotalOutputTokens) / 1_000_000 * pricing.Output
	return inputCost + outputCost
}

// Known reports whether a pricing entry exists for the model.
func Known(model string) bool {
	_, ok := pricingTable[model]
	return ok
}
