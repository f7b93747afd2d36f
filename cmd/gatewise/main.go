package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "gatewise",
		Short:   "Gatewise — guardrail and cost-routing gateway for LLM traffic",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newDecideCmd(),
		newStatsCmd(),
		newAuditCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
