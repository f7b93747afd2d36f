package models

import (
	"fmt"
	"time"
)

// ComplianceMode governs what happens to detected PII before a prompt
// leaves the trust boundary.
type ComplianceMode string

const (
	// ModeStrict replaces every detected PII span with the redaction
	// marker before the prompt is forwarded.
	ModeStrict ComplianceMode = "strict"
	// ModeAuditOnly forwards the raw prompt unchanged and flags the
	// request as a logged compliance exception.
	ModeAuditOnly ComplianceMode = "audit-only"
)

// ParseComplianceMode converts a config/header string into a ComplianceMode.
func ParseComplianceMode(s string) (ComplianceMode, error) {
	switch ComplianceMode(s) {
	case ModeStrict, ModeAuditOnly:
		return ComplianceMode(s), nil
	}
	return "", fmt.Errorf("unknown compliance mode %q (want %q or %q)", s, ModeStrict, ModeAuditOnly)
}

// CostEstimate maps tier name to estimated cost in USD for a given
// token count. Every configured tier is present, chosen or not.
type CostEstimate map[string]float64

// RoutingDecision is the outcome of the tier routing policy.
type RoutingDecision struct {
	Tier   string `json:"tier"`
	Reason string `json:"reason"`
}

// LedgerSnapshot is a read-only view of the session savings ledger.
type LedgerSnapshot struct {
	TotalSavings float64 `json:"total_savings"`
	RequestCount int     `json:"request_count"`
}

// DecisionRecord is the full result of the gateway decision pipeline for
// one request. It is the only interface between the decision core and
// anything that presents or executes the request.
type DecisionRecord struct {
	RequestID           string         `json:"request_id"`
	Model               string         `json:"model"`
	Tokens              int            `json:"tokens"`
	Costs               CostEstimate   `json:"costs"`
	CostLow             float64        `json:"cost_low"`
	CostHigh            float64        `json:"cost_high"`
	PIIFindingCount     int            `json:"pii_finding_count"`
	PIICategories       []string       `json:"pii_categories,omitempty"`
	Redacted            bool           `json:"redacted"`
	AuditFlagged        bool           `json:"audit_flagged"`
	ChosenTier          string         `json:"chosen_tier"`
	ChosenModel         string         `json:"chosen_model"`
	RoutingReason       string         `json:"routing_reason"`
	ComplianceMode      ComplianceMode `json:"compliance_mode"`
	ForwardedText       string         `json:"forwarded_text"`
	Savings             float64        `json:"savings"`
	SessionSavingsAfter float64        `json:"session_savings_after"`
	CostWarning         bool           `json:"cost_warning,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}
