package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatewise-ai/gatewise/pkg/config"
	"github.com/gatewise-ai/gatewise/pkg/history"
	"github.com/gatewise-ai/gatewise/pkg/models"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		since      string
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show routing decisions and accumulated savings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}

			store, err := history.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := context.Background()

			sinceTime := beginningOfMonth()
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				sinceTime = t
			}

			summaries, err := store.Summary(ctx)
			if err != nil {
				return err
			}
			fmt.Print(formatSummaryTable(summaries))

			total, err := store.TotalSavings(ctx, sinceTime)
			if err != nil {
				return err
			}
			fmt.Printf("\nSavings since %s: $%.5f\n", sinceTime.Format("2006-01-02"), total)

			if recent > 0 {
				entries, err := store.Recent(ctx, recent)
				if err != nil {
					return err
				}
				fmt.Print(formatRecentTable(entries))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to gatewise config file")
	cmd.Flags().StringVar(&since, "since", "", "savings window start (YYYY-MM-DD, default: start of month)")
	cmd.Flags().IntVar(&recent, "recent", 0, "also list the N most recent decisions")

	return cmd
}

func beginningOfMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func formatSummaryTable(summaries []models.TierSummary) string {
	if len(summaries) == 0 {
		return "No decisions recorded.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %8s %12s %12s %12s %9s\n",
		"TIER", "REQUESTS", "TOKENS", "COST", "SAVINGS", "REDACTED")
	b.WriteString(strings.Repeat("-", 68) + "\n")

	var totalCost, totalSavings float64
	for _, s := range summaries {
		fmt.Fprintf(&b, "%-10s %8d %12d $%11.4f $%11.4f %9d\n",
			s.Tier, s.RequestCount, s.TotalTokens, s.TotalCost, s.TotalSavings, s.RedactedCount)
		totalCost += s.TotalCost
		totalSavings += s.TotalSavings
	}
	b.WriteString(strings.Repeat("-", 68) + "\n")
	fmt.Fprintf(&b, "%19s %12s $%11.4f $%11.4f\n", "TOTAL:", "", totalCost, totalSavings)
	return b.String()
}

func formatRecentTable(entries []models.DecisionEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-20s %-10s %8s %10s %5s %9s\n",
		"TIME", "TIER", "TOKENS", "SAVINGS", "PII", "REDACTED")
	b.WriteString(strings.Repeat("-", 68) + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-20s %-10s %8d $%9.5f %5d %9v\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.ChosenTier,
			e.Tokens, e.Savings, e.PIIFindingCount, e.Redacted)
	}
	return b.String()
}
