// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// dbinfoCmd shows which database is in use and how many rows each table holds.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show the current database connection and table sizes",
	Long: `The dbinfo command displays the database connection string in use, with
credentials masked, where it was configured, and the row count of every table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exec, t, closeDB, err := openExecutor(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithPadding(1).
			Println(t.masked() + "\n" + pterm.FgGray.Sprint("from "+string(t.source)))
		pterm.Println()

		tables, err := exec.Schema().Tables(ctx)
		if err != nil {
			cmd.PrintErrln(failureLine(err))
			return errReported
		}
		if len(tables) == 0 {
			pterm.Println("No tables yet. Run: sqlagent setup")
			return nil
		}
		counts, err := exec.TableCounts(ctx, tables)
		if err != nil {
			cmd.PrintErrln(failureLine(err))
			return errReported
		}

		sort.Strings(tables)
		data := pterm.TableData{{"Table", "Rows"}}
		for _, name := range tables {
			data = append(data, []string{name, humanize.Comma(counts[name])})
		}
		return pterm.DefaultTable.WithHasHeader().WithRightAlignment().WithData(data).Render()
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
