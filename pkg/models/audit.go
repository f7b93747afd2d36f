package models

import "time"

// ComplianceEvent records a request that was forwarded with detected PII
// left in place (audit-only mode). One row per flagged request.
type ComplianceEvent struct {
	RequestID    string    `json:"request_id"`
	Model        string    `json:"model"`
	ChosenTier   string    `json:"chosen_tier"`
	Mode         string    `json:"mode"`
	Categories   []string  `json:"categories"`
	FindingCount int       `json:"finding_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditConfig controls the compliance-exception log.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// AuditQueryOpts specifies filters for querying compliance events.
type AuditQueryOpts struct {
	Model     string
	Tier      string
	RequestID string
	Since     time.Time
	Limit     int
}

// AuditStat holds compliance-event counts for a model/day combination.
type AuditStat struct {
	Model string
	Day   string
	Count int
}
