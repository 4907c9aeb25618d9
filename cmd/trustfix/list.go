package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/trustfix/internal/engine"
	"github.com/dshills/trustfix/internal/scenario"
)

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List built-in mock scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := scenario.List()
			if err != nil {
				return fmt.Errorf("list scenarios: %w", err)
			}
			w := cmd.OutOrStdout()
			for _, n := range names {
				if n == scenario.Default {
					fmt.Fprintf(w, "%s (default)\n", n)
					continue
				}
				fmt.Fprintln(w, n)
			}
			return nil
		},
	}
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the diagnostic rule table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Rule set %s\n", engine.RuleSetVersion)
			for _, r := range engine.Rules() {
				fmt.Fprintf(w, "%-24s %-9s %s\n", r.ID, r.Severity, r.Impact)
			}
			return nil
		},
	}
}
