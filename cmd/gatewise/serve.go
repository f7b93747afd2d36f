package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gatewise-ai/gatewise/pkg/audit"
	"github.com/gatewise-ai/gatewise/pkg/config"
	"github.com/gatewise-ai/gatewise/pkg/gateway"
	"github.com/gatewise-ai/gatewise/pkg/history"
	"github.com/gatewise-ai/gatewise/pkg/pii"
	"github.com/gatewise-ai/gatewise/pkg/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validate config: %w", err)
			}

			// The recognizer is mandatory: without it no text may be
			// forwarded, so startup fails here rather than at request time.
			scanner, err := pii.NewScanner(pii.NewRegexRecognizer())
			if err != nil {
				return fmt.Errorf("init pii scanner: %w", err)
			}

			pipeline, err := gateway.New(cfg, nil, scanner)
			if err != nil {
				return fmt.Errorf("init pipeline: %w", err)
			}

			store, err := history.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init history store: %w", err)
			}
			defer func() { _ = store.Close() }()

			var auditor *audit.Logger
			if cfg.Audit.Enabled {
				auditor, err = audit.New(cfg.Audit)
				if err != nil {
					return fmt.Errorf("init audit logger: %w", err)
				}
				defer func() { _ = auditor.Close() }()
			}

			srv := server.New(cfg, pipeline, store, auditor)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("starting gatewise with config: %s (mode=%s)", configPath, cfg.Mode())
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "gatewise.yaml", "path to config file")
	return cmd
}
