// Package audit records compliance exceptions: requests that were
// forwarded with detected PII left in place under audit-only mode. It is
// the external collaborator the redaction step deliberately does not
// call itself.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gatewise-ai/gatewise/pkg/models"
)

// Logger writes and queries compliance events in a dedicated SQLite
// database and prunes them on a retention schedule.
type Logger struct {
	db   *sql.DB
	cfg  models.AuditConfig
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens the audit database, creates the schema, and starts the
// retention loop.
func New(cfg models.AuditConfig) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.retentionLoop()

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS compliance_events (
		request_id    TEXT PRIMARY KEY,
		model         TEXT NOT NULL,
		chosen_tier   TEXT NOT NULL,
		mode          TEXT NOT NULL,
		categories    TEXT NOT NULL,
		finding_count INTEGER NOT NULL,
		created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_compliance_model ON compliance_events(model)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_compliance_created ON compliance_events(created_at)`)
	return err
}

// Log inserts a compliance event. Only the categories and counts are
// stored, never the prompt text itself.
func (l *Logger) Log(ctx context.Context, event models.ComplianceEvent) error {
	if l == nil || l.db == nil {
		return nil
	}

	categories, _ := json.Marshal(event.Categories)
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO compliance_events
		(request_id, model, chosen_tier, mode, categories, finding_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.RequestID, event.Model, event.ChosenTier, event.Mode,
		string(categories), event.FindingCount, event.CreatedAt,
	)
	return err
}

// Query returns compliance events matching the given options, newest
// first.
func (l *Logger) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.ComplianceEvent, error) {
	q := `SELECT request_id, model, chosen_tier, mode, categories, finding_count, created_at
		FROM compliance_events WHERE 1=1`
	var args []any

	if opts.RequestID != "" {
		q += " AND request_id = ?"
		args = append(args, opts.RequestID)
	}
	if opts.Model != "" {
		q += " AND model = ?"
		args = append(args, opts.Model)
	}
	if opts.Tier != "" {
		q += " AND chosen_tier = ?"
		args = append(args, opts.Tier)
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since)
	}

	q += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query compliance events: %w", err)
	}
	defer rows.Close()

	var events []models.ComplianceEvent
	for rows.Next() {
		var e models.ComplianceEvent
		var categories string
		if err := rows.Scan(&e.RequestID, &e.Model, &e.ChosenTier, &e.Mode,
			&categories, &e.FindingCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan compliance event: %w", err)
		}
		_ = json.Unmarshal([]byte(categories), &e.Categories)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Stats returns event counts grouped by model and day.
func (l *Logger) Stats(ctx context.Context) ([]models.AuditStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT model, date(created_at) as day, count(*) as cnt
		 FROM compliance_events GROUP BY model, day ORDER BY day DESC, model`)
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	var stats []models.AuditStat
	for rows.Next() {
		var s models.AuditStat
		var day sql.NullString
		if err := rows.Scan(&s.Model, &day, &s.Count); err != nil {
			return nil, fmt.Errorf("scan audit stat: %w", err)
		}
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes events older than the configured retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM compliance_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_, _ = l.Cleanup(context.Background())
		}
	}
}
