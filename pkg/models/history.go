package models

import "time"

// DecisionEntry is one persisted row of the decision history store.
type DecisionEntry struct {
	ID              int64     `json:"id"`
	RequestID       string    `json:"request_id"`
	Model           string    `json:"model"`
	ChosenTier      string    `json:"chosen_tier"`
	Tokens          int       `json:"tokens"`
	ChosenCost      float64   `json:"chosen_cost"`
	HighestCost     float64   `json:"highest_cost"`
	Savings         float64   `json:"savings"`
	PIIFindingCount int       `json:"pii_finding_count"`
	Redacted        bool      `json:"redacted"`
	AuditFlagged    bool      `json:"audit_flagged"`
	CreatedAt       time.Time `json:"created_at"`
}

// TierSummary aggregates decision history per chosen tier.
type TierSummary struct {
	Tier          string  `json:"tier"`
	RequestCount  int     `json:"request_count"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
	TotalSavings  float64 `json:"total_savings"`
	RedactedCount int     `json:"redacted_count"`
}
