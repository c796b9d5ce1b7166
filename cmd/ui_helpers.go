// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"

	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/sqlexec"
	"sqlagent/cli/internal/terminal"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// startInlineSpinner shows rotating frames followed by text on one line until
// the returned function is called. The cursor is hidden while it runs; nothing
// is drawn when stdout is not a terminal.
func startInlineSpinner(w io.Writer, text string) func() {
	if !terminal.IsInteractive() {
		return func() {}
	}
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	cursor.Hide()
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", spinnerFrames[i%len(spinnerFrames)], text)
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				i++
				fmt.Fprintf(w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], text)
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			cursor.Show()
		})
	}
}

// maxCellWidth truncates long cell values in terminal tables.
const maxCellWidth = 60

// renderTable renders res as a pterm table followed by a row count line.
func renderTable(res *sqlexec.Result) string {
	if len(res.Columns) == 0 {
		if res.RowsAffected > 0 {
			return fmt.Sprintf("%d row(s) affected\n", res.RowsAffected)
		}
		return "OK\n"
	}

	data := pterm.TableData{res.Columns}
	for _, row := range res.Rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = cell(v)
		}
		data = append(data, line)
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		out = strings.Join(res.Columns, " | ")
	}
	return fmt.Sprintf("%s\n(%d row%s)\n", out, len(res.Rows), plural(len(res.Rows)))
}

func cell(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		s = string(x)
	case time.Time:
		s = x.Format(time.RFC3339)
	default:
		s = fmt.Sprint(x)
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-3]) + "..."
	}
	return s
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// failureLine renders a query failure for the terminal.
func failureLine(err error) string {
	return "❌ " + qerr.Caller(err)
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
