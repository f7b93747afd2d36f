// Package ledger tracks session savings from tier routing.
package ledger

import (
	"sync"

	"github.com/gatewise-ai/gatewise/pkg/models"
)

// Ledger accumulates the savings of routing requests below the highest
// tier. It is the only mutable state shared across requests; Record is
// serialized so concurrent requests never lose updates. The ledger is
// session-scoped and starts at zero, it is never persisted.
type Ledger struct {
	mu       sync.Mutex
	total    float64
	requests int
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record adds the savings of one request (highest-tier cost minus chosen
// cost) and returns the new running total.
func (l *Ledger) Record(est models.CostEstimate, chosenTier, highestTier string) float64 {
	delta := est[highestTier] - est[chosenTier]

	l.mu.Lock()
	defer l.mu.Unlock()
	l.total += delta
	l.requests++
	return l.total
}

// Total returns the running savings total without mutating it.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Snapshot returns a read-only view of the ledger.
func (l *Ledger) Snapshot() models.LedgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return models.LedgerSnapshot{TotalSavings: l.total, RequestCount: l.requests}
}
