package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gatewise-ai/gatewise/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.Mode() != models.ModeStrict {
		t.Errorf("expected strict default mode, got %s", cfg.Mode())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test-123")

	content := `
listen: ":9090"
db_path: "test.db"
compliance_mode: audit-only
warn_cost: 0.001
provider:
  url: https://api.openai.com
  api_key: ${TEST_API_KEY}
tiers:
  - name: low
    model: gpt-4o-mini
    price_per_1k: 0.00015
    max_tokens: 50
  - name: high
    model: gpt-4o
    price_per_1k: 0.03
audit:
  enabled: true
  db_path: audit.db
  retention_days: 7
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.Provider.APIKey != "sk-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.Provider.APIKey)
	}
	if cfg.Mode() != models.ModeAuditOnly {
		t.Errorf("expected audit-only mode, got %s", cfg.Mode())
	}
	if cfg.Audit.RetentionDays != 7 {
		t.Errorf("expected retention 7, got %d", cfg.Audit.RetentionDays)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config must validate: %v", err)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Default()
	cfg.ComplianceMode = "block-everything"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown compliance mode")
	}
}

func TestValidateRejectsNoTiers(t *testing.T) {
	cfg := Default()
	cfg.Tiers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty tiers")
	}
}

func TestValidateRejectsDescendingPrices(t *testing.T) {
	cfg := Default()
	cfg.Tiers[0].PricePer1K = 1.0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for descending prices")
	}
}

func TestValidateRejectsBoundedLastTier(t *testing.T) {
	cfg := Default()
	cfg.Tiers[len(cfg.Tiers)-1].MaxTokens = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for bounded catch-all tier")
	}
}

func TestValidateRejectsUnboundedMidTier(t *testing.T) {
	cfg := Default()
	cfg.Tiers[0].MaxTokens = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing max_tokens on non-final tier")
	}
}

func TestValidateRejectsNonAscendingBounds(t *testing.T) {
	cfg := Default()
	cfg.Tiers = []TierConfig{
		{Name: "low", Model: "a", PricePer1K: 0.001, MaxTokens: 100},
		{Name: "mid", Model: "b", PricePer1K: 0.002, MaxTokens: 50},
		{Name: "high", Model: "c", PricePer1K: 0.03},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-ascending bounds")
	}
}

func TestDerivedTables(t *testing.T) {
	cfg := Default()

	rates := cfg.RateTable()
	if rates["low"] != 0.00015 || rates["high"] != 0.03 {
		t.Errorf("unexpected rate table: %v", rates)
	}

	table := cfg.Thresholds()
	if len(table) != 2 || table[0].UpperBound != 50 || table.Highest() != "high" {
		t.Errorf("unexpected threshold table: %v", table)
	}

	tm := cfg.TierModels()
	if tm["low"] != "gpt-4o-mini" || tm["high"] != "gpt-4o" {
		t.Errorf("unexpected tier models: %v", tm)
	}
}
