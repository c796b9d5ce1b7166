// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlagent/cli/internal/backend"
	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/httperrors"
)

var (
	statusServer  string
	statusTimeout time.Duration
)

// statusCmd checks a running `sqlagent serve`.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check a running sqlagent server",
	Long: `The status command calls the health and database-info endpoints of a running
'sqlagent serve' and reports what it finds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		api := backend.New(statusServer, statusTimeout)
		host := httperrors.ExtractHostFromURL(statusServer)

		h, err := api.Health(ctx)
		if err != nil {
			_ = httperrors.FormatNetworkError(err, "checking health", host)
			return errReported
		}
		if !h.Healthy() {
			pterm.Error.Printf("%s is up but cannot reach its database: %s\n", host, h.Error)
			return errReported
		}
		pterm.Success.Printf("%s is healthy (%s)\n", host, h.Timestamp)

		info, err := api.DatabaseInfo(ctx)
		if err != nil {
			if qerr.KindOf(err) != "" {
				pterm.Println(failureLine(err))
				return errReported
			}
			var se *backend.StatusError
			if !errors.As(err, &se) {
				_ = httperrors.FormatNetworkError(err, "reading database info", host)
			} else {
				pterm.Error.Println(se.Error())
			}
			return errReported
		}

		if info.Database != "" {
			pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Database: ") + info.Database)
		}
		names := make([]string, 0, len(info.TableCounts))
		for name := range info.TableCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		data := pterm.TableData{{"Table", "Rows"}}
		for _, name := range names {
			data = append(data, []string{name, humanize.Comma(info.TableCounts[name])})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusServer, "server", backend.DefaultServerURL, "base URL of the server")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 10*time.Second, "request timeout")
}
