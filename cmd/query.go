// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	qerr "sqlagent/cli/internal/errors"
)

var queryJSON bool

// queryCmd runs one statement through the guard.
var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run one guarded SELECT statement",
	Long: `The query command runs a single statement through the guard and prints the
result as a table, or as JSON with --json. Anything other than one SELECT
statement is rejected before it reaches the database.

Example:
  sqlagent query "SELECT region, COUNT(*) FROM customers GROUP BY region"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, _, closeDB, err := openExecutor(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		out := cmd.OutOrStdout()
		res, err := exec.ExecuteGuardedSQL(cmd.Context(), strings.Join(args, " "))
		if queryJSON {
			if err != nil {
				_ = writeJSON(out, map[string]string{"error": qerr.Caller(err)})
				return errReported
			}
			return writeJSON(out, res)
		}
		if err != nil {
			cmd.PrintErrln(failureLine(err))
			return errReported
		}
		cmd.Print(renderTable(res))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
}
