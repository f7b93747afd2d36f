// Package routing selects a service tier from a token count.
package routing

import (
	"fmt"

	"github.com/gatewise-ai/gatewise/pkg/models"
)

// Reasons attached to routing decisions.
const (
	ReasonBelowThreshold = "below complexity threshold"
	ReasonAboveThreshold = "above complexity threshold"
)

// Threshold pairs an exclusive token upper bound with a tier. A zero
// UpperBound marks the unbounded catch-all, valid only as the last entry.
type Threshold struct {
	UpperBound int
	Tier       string
}

// Table is an ordered list of thresholds, ascending by bound, with the
// last entry acting as the unbounded highest tier.
type Table []Threshold

// Route returns the first tier whose upper bound strictly exceeds tokens;
// the final entry catches everything else. Deterministic and pure.
func (t Table) Route(tokens int) (models.RoutingDecision, error) {
	if len(t) == 0 {
		return models.RoutingDecision{}, fmt.Errorf("no routing thresholds configured")
	}

	for _, th := range t[:len(t)-1] {
		if tokens < th.UpperBound {
			return models.RoutingDecision{Tier: th.Tier, Reason: ReasonBelowThreshold}, nil
		}
	}
	return models.RoutingDecision{Tier: t[len(t)-1].Tier, Reason: ReasonAboveThreshold}, nil
}

// Highest returns the catch-all tier, the reference point for savings.
func (t Table) Highest() string {
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1].Tier
}
