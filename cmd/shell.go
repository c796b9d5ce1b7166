// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sqlagent/cli/internal/guard"
	"sqlagent/cli/internal/sqlexec"
	"sqlagent/cli/internal/terminal"
	"sqlagent/cli/internal/xdg"
)

var shellRisky bool

// shellCmd is the interactive SQL prompt.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive SQL prompt over the guarded executor",
	Long: `The shell command reads SQL statements line by line and runs each through the
guard. Type "help" for the built-in commands.

With --risky the guard is bypassed and statements run as written, inside a
transaction that commits. This exists to demonstrate why the guard matters;
never point it at data you care about.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, t, closeDB, err := openExecutor(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		sh := &shell{
			in:    cmd.InOrStdin(),
			out:   cmd.OutOrStdout(),
			exec:  exec,
			risky: shellRisky,
			log:   current.log,
		}
		if f, err := openHistory(); err == nil {
			defer f.Close()
			sh.history = f
		} else {
			current.log.Debug("history disabled", zap.Error(err))
		}

		pterm.DefaultHeader.WithFullWidth(false).Println("sqlagent shell")
		fmt.Fprintf(sh.out, "Connected to %s\n", t.masked())
		if shellRisky {
			printRiskyBanner(sh.out)
		}
		fmt.Fprintln(sh.out, `Type "help" for commands, "quit" to leave.`)
		return sh.run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().BoolVar(&shellRisky, "risky", false, "bypass the guard (demo only)")
}

func printRiskyBanner(w io.Writer) {
	fmt.Fprintln(w, pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(
		"⚠️  RISKY MODE: statements run unguarded and are committed. Demo only."))
}

func openHistory() (*os.File, error) {
	path, err := xdg.HistoryFile()
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

// shell is the read-eval-print loop behind `sqlagent shell`.
type shell struct {
	in      io.Reader
	out     io.Writer
	exec    *sqlexec.Executor
	risky   bool
	history io.Writer
	log     *zap.Logger
}

const shellHelp = `Commands:
  help               show this help
  schema             list tables and columns
  security           show the guard settings
  clear              clear the screen
  quit | exit | q    leave the shell
Anything else is run as SQL.
`

func (s *shell) prompt() string {
	if s.risky {
		return "sql!> "
	}
	return "sql> "
}

func (s *shell) run(ctx context.Context) error {
	sc := bufio.NewScanner(s.in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, s.prompt())
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if done := s.handle(ctx, line); done {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// handle runs one input line and reports whether the shell should exit.
func (s *shell) handle(ctx context.Context, line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Bye.")
		return true
	case "help":
		fmt.Fprint(s.out, shellHelp)
		return false
	case "schema":
		desc, err := s.exec.Schema().Describe(ctx)
		if err != nil {
			fmt.Fprintln(s.out, failureLine(err))
			return false
		}
		fmt.Fprint(s.out, desc)
		return false
	case "security":
		s.printSecurity()
		return false
	case "clear":
		terminal.ClearScreen(s.out)
		return false
	}

	if s.history != nil {
		fmt.Fprintln(s.history, line)
	}

	var (
		res *sqlexec.Result
		err error
	)
	if s.risky {
		res, err = s.exec.ExecuteUnguarded(ctx, line)
	} else {
		res, err = s.exec.ExecuteGuardedSQL(ctx, line)
	}
	if err != nil {
		fmt.Fprintln(s.out, failureLine(err))
		return false
	}
	fmt.Fprint(s.out, renderTable(res))
	return false
}

func (s *shell) printSecurity() {
	g := s.exec.Guard()
	fmt.Fprintf(s.out, "Only single SELECT statements are accepted.\n")
	fmt.Fprintf(s.out, "Blocked keywords:   %s\n", strings.Join(g.BlockedKeywords(), ", "))
	fmt.Fprintf(s.out, "Blocked patterns:   %s\n", strings.Join(guard.DangerousPatterns(), ", "))
	fmt.Fprintf(s.out, "Row limit:          %d\n", g.MaxRows())
	fmt.Fprintf(s.out, "Max query length:   %d characters\n", guard.MaxQueryLength)
	if s.risky {
		fmt.Fprintln(s.out, "The guard is OFF in this session.")
	}
}
