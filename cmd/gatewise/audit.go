package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatewise-ai/gatewise/pkg/audit"
	"github.com/gatewise-ai/gatewise/pkg/config"
	"github.com/gatewise-ai/gatewise/pkg/models"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and manage the compliance event log",
	}

	cmd.AddCommand(
		newAuditSearchCmd(),
		newAuditShowCmd(),
		newAuditStatsCmd(),
		newAuditCleanupCmd(),
	)
	return cmd
}

func newAuditSearchCmd() *cobra.Command {
	var (
		configPath string
		model      string
		tier       string
		since      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search compliance events",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := models.AuditQueryOpts{
				Model: model,
				Tier:  tier,
				Limit: limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			events, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Print(formatComplianceEvents(events))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to gatewise config file")
	cmd.Flags().StringVar(&model, "model", "", "filter by requested model")
	cmd.Flags().StringVar(&tier, "tier", "", "filter by chosen tier")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max events to return")

	return cmd
}

func newAuditShowCmd() *cobra.Command {
	var (
		configPath string
		requestID  string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a single compliance event by request ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if requestID == "" {
				return fmt.Errorf("--request-id is required")
			}

			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			events, err := l.Query(context.Background(), models.AuditQueryOpts{
				RequestID: requestID,
				Limit:     1,
			})
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No event found for that request ID.")
				return nil
			}

			e := events[0]
			fmt.Printf("Request ID:    %s\n", e.RequestID)
			fmt.Printf("Model:         %s\n", e.Model)
			fmt.Printf("Chosen tier:   %s\n", e.ChosenTier)
			fmt.Printf("Mode:          %s\n", e.Mode)
			fmt.Printf("Categories:    %s\n", strings.Join(e.Categories, ", "))
			fmt.Printf("Findings:      %d\n", e.FindingCount)
			fmt.Printf("Time:          %s\n", e.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to gatewise config file")
	cmd.Flags().StringVar(&requestID, "request-id", "", "request ID to show")

	return cmd
}

func newAuditStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show compliance event counts by model and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := l.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Print(formatAuditStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to gatewise config file")
	return cmd
}

func newAuditCleanupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete compliance events older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d compliance events.\n", deleted)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to gatewise config file")
	return cmd
}

func openAuditLogger(configPath string) (*audit.Logger, func(), error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
	}

	l, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit db: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

func formatComplianceEvents(events []models.ComplianceEvent) string {
	if len(events) == 0 {
		return "No compliance events found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-38s %-20s %-10s %-12s %8s %-20s\n",
		"REQUEST ID", "MODEL", "TIER", "MODE", "FINDINGS", "TIME")
	b.WriteString(strings.Repeat("-", 114) + "\n")
	for _, e := range events {
		fmt.Fprintf(&b, "%-38s %-20s %-10s %-12s %8d %-20s\n",
			e.RequestID, e.Model, e.ChosenTier, e.Mode, e.FindingCount,
			e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func formatAuditStats(stats []models.AuditStat) string {
	if len(stats) == 0 {
		return "No audit stats found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-25s %-12s %8s\n", "MODEL", "DAY", "COUNT")
	b.WriteString(strings.Repeat("-", 48) + "\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-25s %-12s %8d\n", s.Model, s.Day, s.Count)
	}
	return b.String()
}
