package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"guesstimate/internal/analysis"
	"guesstimate/internal/simulation"

	"github.com/spf13/cobra"
)

var (
	analyzeJQL     string
	analyzeRefresh bool
	backtest       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a JQL query and print the datasets as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		jql := analyzeJQL
		if jql == "" {
			jql = cfg.DefaultJQL
		}
		if jql == "" {
			return fmt.Errorf("--jql is required (or set DEFAULT_JQL)")
		}

		q := analysis.Query{JQL: jql}
		var out any
		if backtest {
			res, rejected, err := svc.Backtest(cmd.Context(), q, simulation.WalkForwardConfig{})
			if err != nil {
				return err
			}
			if rejected != nil {
				out = map[string]any{"error": *rejected}
			} else {
				out = res
			}
		} else {
			run := svc.Analyze
			if analyzeRefresh {
				run = svc.Refresh
			}
			resp, err := run(cmd.Context(), q)
			if err != nil {
				return err
			}
			out = resp
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var filtersName string

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List saved Jira filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		name := filtersName
		if name == "" {
			name = cfg.FilterName
		}
		filters, err := svc.Filters(cmd.Context(), name)
		if err != nil {
			return err
		}
		for _, f := range filters {
			fmt.Printf("%s\t%s\t%s\n", f.ID, f.Name, f.JQL)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJQL, "jql", "", "JQL query to analyze (defaults to DEFAULT_JQL)")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "ignore the memoized result")
	analyzeCmd.Flags().BoolVar(&backtest, "backtest", false, "run a walk-forward backtest of the forecast instead")
	filtersCmd.Flags().StringVar(&filtersName, "name", "", "filter name to search for (defaults to JIRA_FILTER_NAME)")

	rootCmd.AddCommand(analyzeCmd, filtersCmd)
}
