package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatewise-ai/gatewise/pkg/config"
	"github.com/gatewise-ai/gatewise/pkg/gateway"
	"github.com/gatewise-ai/gatewise/pkg/models"
	"github.com/gatewise-ai/gatewise/pkg/pii"
)

func newDecideCmd() *cobra.Command {
	var (
		configPath string
		model      string
		mode       string
	)

	cmd := &cobra.Command{
		Use:   "decide [prompt]",
		Short: "Run the decision pipeline on a prompt without executing it",
		Long: `Decide runs the full gateway pipeline — token accounting, cost
estimation, PII scanning, redaction and tier routing — on a single
prompt and prints the decision record as JSON. Nothing is sent to the
provider. The prompt is read from arguments, or from stdin when absent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}

			text := strings.Join(args, " ")
			if text == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}

			var reqMode models.ComplianceMode
			if mode != "" {
				var err error
				reqMode, err = models.ParseComplianceMode(mode)
				if err != nil {
					return err
				}
			}

			scanner, err := pii.NewScanner(pii.NewRegexRecognizer())
			if err != nil {
				return fmt.Errorf("init pii scanner: %w", err)
			}

			pipeline, err := gateway.New(cfg, nil, scanner)
			if err != nil {
				return fmt.Errorf("init pipeline: %w", err)
			}

			rec, err := pipeline.HandleRequest(cmd.Context(), gateway.Request{
				Text:  text,
				Model: model,
				Mode:  reqMode,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to gatewise config file")
	cmd.Flags().StringVarP(&model, "model", "m", "gpt-4o", "requested model family")
	cmd.Flags().StringVar(&mode, "mode", "", "compliance mode override (strict|audit-only)")

	return cmd
}
