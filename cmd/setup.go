// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlagent/cli/internal/fixture"
	"sqlagent/cli/internal/terminal"
)

var (
	setupReset bool
	setupOpts  = fixture.DefaultOptions()
)

// setupCmd creates and loads the demo database.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create and seed the demo database",
	Long: `The setup command creates the demo tables (customers, products, orders,
order_items, payments, refunds) and loads deterministic sample rows, then checks
referential integrity. Use --reset to drop existing demo tables first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t := resolveTarget()
		db, err := openDatabase(ctx, t)
		if err != nil {
			return err
		}
		defer db.Close()

		setupOpts.Reset = setupReset
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Database: ") + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(t.masked()))
		pterm.Println()

		state := fixture.NewProgressState()
		stop := startProgressArea(state)
		counts, err := fixture.Seed(ctx, db, setupOpts, state, current.log)
		stop()
		pterm.Println(renderProgress(state.Snapshot(), 0, nil))
		if err != nil {
			pterm.Error.Println(err.Error())
			if !setupReset {
				pterm.Println("   Tables may already hold data; rerun with --reset to start over.")
			}
			return errReported
		}

		report, err := fixture.Validate(ctx, db)
		if err != nil {
			return err
		}
		if !report.OK() {
			pterm.Warning.Printf("Integrity problems: %d foreign key violations, %d orphaned order items, %d orphaned payments\n",
				report.ForeignKeyViolations, report.OrphanedOrderItems, report.OrphanedPayments)
			return errReported
		}

		total := 0
		for _, n := range counts {
			total += n
		}
		pterm.Success.Printf("Loaded %d rows into %d tables. Try: sqlagent shell\n", total, len(counts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
	f := setupCmd.Flags()
	f.BoolVar(&setupReset, "reset", false, "drop existing demo tables first")
	f.IntVar(&setupOpts.Customers, "customers", setupOpts.Customers, "number of customers")
	f.IntVar(&setupOpts.Products, "products", setupOpts.Products, "number of products")
	f.IntVar(&setupOpts.Orders, "orders", setupOpts.Orders, "number of orders")
}

// startProgressArea redraws the load progress until the returned function is called.
func startProgressArea(state *fixture.ProgressState) func() {
	if !terminal.IsInteractive() {
		return func() {}
	}
	cursor.Hide()
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		cursor.Show()
		return func() {}
	}

	padder := &fixture.LinePadder{}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		frame := 0
		for {
			select {
			case <-t.C:
				frame++
				area.Update(renderProgress(state.Snapshot(), frame, padder))
			case <-stop:
				return
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
		_ = area.Stop()
		cursor.Show()
	}
}

// renderProgress draws one line per table. frame animates active tables; a nil
// padder leaves lines unpadded.
func renderProgress(snap []fixture.TableProgress, frame int, padder *fixture.LinePadder) string {
	var b strings.Builder
	for _, tp := range snap {
		var line string
		switch {
		case tp.Failed != "":
			line = fmt.Sprintf("%s %-12s failed: %s", pterm.FgRed.Sprint("✗"), tp.Table, tp.Failed)
		case tp.Done:
			line = fmt.Sprintf("%s %-12s %d rows", pterm.FgGreen.Sprint("✓"), tp.Table, tp.Total)
		default:
			line = fmt.Sprintf("%s %-12s %d/%d", spinnerFrames[frame%len(spinnerFrames)], tp.Table, tp.Inserted, tp.Total)
		}
		if padder != nil {
			line = padder.FormatLine(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
