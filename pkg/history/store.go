// Package history persists decision records for reporting. The session
// savings ledger stays in memory; this store is the durable record
// behind the stats CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gatewise-ai/gatewise/pkg/models"
)

// Store records and queries gateway decisions.
type Store struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	model TEXT NOT NULL,
	chosen_tier TEXT NOT NULL,
	tokens INTEGER NOT NULL,
	chosen_cost REAL NOT NULL,
	highest_cost REAL NOT NULL,
	savings REAL NOT NULL,
	pii_finding_count INTEGER NOT NULL,
	redacted INTEGER NOT NULL,
	audit_flagged INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_decisions_tier_time ON decisions(chosen_tier, created_at);
CREATE INDEX IF NOT EXISTS idx_decisions_time ON decisions(created_at);
`

// New creates a Store and runs auto-migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	return &Store{db: db}, nil
}

// Record stores one decision.
func (s *Store) Record(ctx context.Context, rec models.DecisionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (request_id, model, chosen_tier, tokens, chosen_cost, highest_cost, savings,
		 pii_finding_count, redacted, audit_flagged, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Model, rec.ChosenTier, rec.Tokens,
		rec.Costs[rec.ChosenTier], rec.CostHigh, rec.Savings,
		rec.PIIFindingCount, rec.Redacted, rec.AuditFlagged, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// Summary aggregates decisions per chosen tier.
func (s *Store) Summary(ctx context.Context) ([]models.TierSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chosen_tier, COUNT(*), SUM(tokens), SUM(chosen_cost), SUM(savings), SUM(redacted)
		 FROM decisions GROUP BY chosen_tier ORDER BY chosen_tier`)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.TierSummary
	for rows.Next() {
		var t models.TierSummary
		if err := rows.Scan(&t.Tier, &t.RequestCount, &t.TotalTokens, &t.TotalCost, &t.TotalSavings, &t.RedactedCount); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, t)
	}
	return summaries, rows.Err()
}

// TotalSavings returns accumulated savings since a given time.
func (s *Store) TotalSavings(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(savings), 0) FROM decisions WHERE created_at >= ?`, since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total savings: %w", err)
	}
	return total, nil
}

// Recent returns the most recent decisions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.DecisionEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, model, chosen_tier, tokens, chosen_cost, highest_cost, savings,
		 pii_finding_count, redacted, audit_flagged, created_at
		 FROM decisions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	var entries []models.DecisionEntry
	for rows.Next() {
		var e models.DecisionEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Model, &e.ChosenTier, &e.Tokens,
			&e.ChosenCost, &e.HighestCost, &e.Savings,
			&e.PIIFindingCount, &e.Redacted, &e.AuditFlagged, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
