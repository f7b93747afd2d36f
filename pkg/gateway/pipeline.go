// Package gateway implements the per-request decision pipeline: token
// accounting, dual-tier cost estimation, PII scanning and redaction,
// tier routing, and savings accounting. The pipeline performs no network
// I/O; executing the decision is the caller's job.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatewise-ai/gatewise/pkg/config"
	"github.com/gatewise-ai/gatewise/pkg/ledger"
	"github.com/gatewise-ai/gatewise/pkg/models"
	"github.com/gatewise-ai/gatewise/pkg/pii"
	"github.com/gatewise-ai/gatewise/pkg/pricing"
	"github.com/gatewise-ai/gatewise/pkg/redact"
	"github.com/gatewise-ai/gatewise/pkg/routing"
	"github.com/gatewise-ai/gatewise/pkg/tokenizer"
)

// Request is one prompt entering the pipeline. Mode may be left empty to
// use the configured default.
type Request struct {
	Text  string
	Model string
	Mode  models.ComplianceMode
}

// Pipeline transforms a Request into a DecisionRecord. All components
// except the ledger are stateless, so a Pipeline is safe for concurrent
// use across independent requests.
type Pipeline struct {
	counter     tokenizer.Counter
	scanner     *pii.Scanner
	rates       pricing.RateTable
	thresholds  routing.Table
	tierModels  map[string]string
	marker      string
	warnCost    float64
	defaultMode models.ComplianceMode
	ledger      *ledger.Ledger
}

// New creates a Pipeline from validated configuration. A nil scanner is
// a fatal configuration error: text must never be forwarded unscanned.
// A nil counter defaults to the tiktoken-backed counter.
func New(cfg *config.Config, counter tokenizer.Counter, scanner *pii.Scanner) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if scanner == nil {
		return nil, pii.ErrRecognizerUnavailable
	}
	if counter == nil {
		counter = tokenizer.NewTiktokenCounter()
	}

	return &Pipeline{
		counter:     counter,
		scanner:     scanner,
		rates:       cfg.RateTable(),
		thresholds:  cfg.Thresholds(),
		tierModels:  cfg.TierModels(),
		marker:      cfg.RedactionMarker,
		warnCost:    cfg.WarnCost,
		defaultMode: cfg.Mode(),
		ledger:      ledger.New(),
	}, nil
}

// Ledger exposes the session savings ledger for presentation.
func (p *Pipeline) Ledger() *ledger.Ledger {
	return p.ledger
}

// DefaultMode returns the configured compliance mode.
func (p *Pipeline) DefaultMode() models.ComplianceMode {
	return p.defaultMode
}

// HandleRequest runs the full decision pipeline for one request and
// updates the session ledger. The returned record is complete: the
// caller decides whether and how to execute it.
func (p *Pipeline) HandleRequest(ctx context.Context, req Request) (models.DecisionRecord, error) {
	mode := req.Mode
	if mode == "" {
		mode = p.defaultMode
	}

	tokens := p.counter.Count(req.Text, req.Model)
	costs := pricing.Estimate(tokens, p.rates)

	// Recognition may be backed by a slow external capability; honor
	// cancellation before it runs.
	if err := ctx.Err(); err != nil {
		return models.DecisionRecord{}, err
	}

	findings, err := p.scanner.Scan(req.Text)
	if err != nil {
		return models.DecisionRecord{}, fmt.Errorf("scan prompt: %w", err)
	}

	res := redact.Apply(req.Text, findings, mode, p.marker)

	decision, err := p.thresholds.Route(tokens)
	if err != nil {
		return models.DecisionRecord{}, fmt.Errorf("route request: %w", err)
	}

	highest := p.thresholds.Highest()
	savings := costs[highest] - costs[decision.Tier]
	total := p.ledger.Record(costs, decision.Tier, highest)

	return models.DecisionRecord{
		RequestID:           uuid.NewString(),
		Model:               req.Model,
		Tokens:              tokens,
		Costs:               costs,
		CostLow:             costs[p.thresholds[0].Tier],
		CostHigh:            costs[highest],
		PIIFindingCount:     len(findings),
		PIICategories:       pii.CategorySet(findings),
		Redacted:            res.Redacted,
		AuditFlagged:        res.AuditFlagged,
		ChosenTier:          decision.Tier,
		ChosenModel:         p.tierModels[decision.Tier],
		RoutingReason:       decision.Reason,
		ComplianceMode:      mode,
		ForwardedText:       res.Text,
		Savings:             savings,
		SessionSavingsAfter: total,
		CostWarning:         p.warnCost > 0 && costs[decision.Tier] > p.warnCost,
		CreatedAt:           time.Now().UTC(),
	}, nil
}
