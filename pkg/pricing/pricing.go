// Package pricing estimates per-tier request cost from token counts.
package pricing

import "github.com/gatewise-ai/gatewise/pkg/models"

// RateTable maps tier name to price in USD per 1K tokens.
type RateTable map[string]float64

// Estimate computes the cost of a request under every configured tier.
// All tiers are estimated unconditionally: the savings ledger needs the
// highest tier's cost even when a cheaper tier is chosen.
func Estimate(tokens int, rates RateTable) models.CostEstimate {
	if tokens < 0 {
		tokens = 0
	}
	est := make(models.CostEstimate, len(rates))
	for tier, rate := range rates {
		est[tier] = float64(tokens) / 1000 * rate
	}
	return est
}
