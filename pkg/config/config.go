package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gatewise-ai/gatewise/pkg/models"
	"github.com/gatewise-ai/gatewise/pkg/pricing"
	"github.com/gatewise-ai/gatewise/pkg/redact"
	"github.com/gatewise-ai/gatewise/pkg/routing"
)

// Config holds all Gatewise configuration.
type Config struct {
	Listen          string             `yaml:"listen"`
	DBPath          string             `yaml:"db_path"`
	ComplianceMode  string             `yaml:"compliance_mode"`
	WarnCost        float64            `yaml:"warn_cost"`
	RedactionMarker string             `yaml:"redaction_marker"`
	Provider        ProviderConfig     `yaml:"provider"`
	Tiers           []TierConfig       `yaml:"tiers"`
	Audit           models.AuditConfig `yaml:"audit"`
}

// ProviderConfig defines the upstream LLM provider every tier executes
// against.
type ProviderConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// TierConfig defines one service tier. Tiers are listed ascending by
// price; MaxTokens is the exclusive routing bound, left zero on the last
// (catch-all, highest) tier.
type TierConfig struct {
	Name       string  `yaml:"name"`
	Model      string  `yaml:"model"`
	PricePer1K float64 `yaml:"price_per_1k"`
	MaxTokens  int     `yaml:"max_tokens"`
}

// Default returns a Config with sensible defaults: the classic two-tier
// gpt-4o-mini / gpt-4o split with a 50-token complexity threshold.
func Default() *Config {
	return &Config{
		Listen:          ":8080",
		DBPath:          "gatewise.db",
		ComplianceMode:  string(models.ModeStrict),
		WarnCost:        0.0002,
		RedactionMarker: redact.DefaultMarker,
		Provider: ProviderConfig{
			URL: "https://api.openai.com",
		},
		Tiers: []TierConfig{
			{Name: "low", Model: "gpt-4o-mini", PricePer1K: 0.00015, MaxTokens: 50},
			{Name: "high", Model: "gpt-4o", PricePer1K: 0.03},
		},
		Audit: models.AuditConfig{
			Enabled:       true,
			DBPath:        "gatewise_audit.db",
			RetentionDays: 30,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks tier ordering and mode values. Rates must be
// non-decreasing in tier order so routing below the highest tier never
// produces negative savings.
func (c *Config) Validate() error {
	if _, err := models.ParseComplianceMode(c.ComplianceMode); err != nil {
		return err
	}
	if c.WarnCost < 0 {
		return fmt.Errorf("warn_cost must be >= 0, got %f", c.WarnCost)
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("at least one tier must be configured")
	}

	seen := make(map[string]bool, len(c.Tiers))
	prevBound := 0
	for i, tier := range c.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("tier %d: name is required", i)
		}
		if seen[tier.Name] {
			return fmt.Errorf("tier %q: duplicate name", tier.Name)
		}
		seen[tier.Name] = true
		if tier.Model == "" {
			return fmt.Errorf("tier %q: model is required", tier.Name)
		}
		if tier.PricePer1K < 0 {
			return fmt.Errorf("tier %q: price_per_1k must be >= 0", tier.Name)
		}
		if i > 0 && tier.PricePer1K < c.Tiers[i-1].PricePer1K {
			return fmt.Errorf("tier %q: price_per_1k must not decrease across tiers", tier.Name)
		}

		last := i == len(c.Tiers)-1
		if last {
			if tier.MaxTokens != 0 {
				return fmt.Errorf("tier %q: last tier is the catch-all and must not set max_tokens", tier.Name)
			}
			continue
		}
		if tier.MaxTokens <= 0 {
			return fmt.Errorf("tier %q: max_tokens is required on non-final tiers", tier.Name)
		}
		if tier.MaxTokens <= prevBound {
			return fmt.Errorf("tier %q: max_tokens must ascend across tiers", tier.Name)
		}
		prevBound = tier.MaxTokens
	}

	return nil
}

// Mode returns the parsed compliance mode. Call Validate first.
func (c *Config) Mode() models.ComplianceMode {
	mode, err := models.ParseComplianceMode(c.ComplianceMode)
	if err != nil {
		return models.ModeStrict
	}
	return mode
}

// RateTable derives the tier price table for cost estimation.
func (c *Config) RateTable() pricing.RateTable {
	rates := make(pricing.RateTable, len(c.Tiers))
	for _, tier := range c.Tiers {
		rates[tier.Name] = tier.PricePer1K
	}
	return rates
}

// Thresholds derives the ordered routing table.
func (c *Config) Thresholds() routing.Table {
	table := make(routing.Table, 0, len(c.Tiers))
	for _, tier := range c.Tiers {
		table = append(table, routing.Threshold{UpperBound: tier.MaxTokens, Tier: tier.Name})
	}
	return table
}

// TierModels maps tier name to the provider model it executes on.
func (c *Config) TierModels() map[string]string {
	m := make(map[string]string, len(c.Tiers))
	for _, tier := range c.Tiers {
		m[tier.Name] = tier.Model
	}
	return m
}
