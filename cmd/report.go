// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlagent/cli/internal/report"
)

var reportJSON bool

// reportCmd runs the keyword report the HTTP analyze endpoint serves, locally.
var reportCmd = &cobra.Command{
	Use:   "report <prompt>",
	Short: "Run a keyword report (revenue, customers, products, ...)",
	Long: `The report command classifies a prompt by keyword and runs the matching
built-in report, the same one POST /api/analyze returns. Month and year in the
prompt narrow the period, e.g. "customers who purchased in January 2024".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, _, closeDB, err := openExecutor(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		resp, err := report.New(exec, current.log).Analyze(cmd.Context(), strings.Join(args, " "))
		if errors.Is(err, report.ErrEmptyPrompt) {
			return err
		}
		if err != nil {
			cmd.PrintErrln(failureLine(err))
			return errReported
		}
		if reportJSON {
			return writeJSON(cmd.OutOrStdout(), resp)
		}
		pterm.DefaultSection.Println(resp.AnalysisType)
		pterm.Println(resp.TextResponse)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the full payload, chart data included")
}
