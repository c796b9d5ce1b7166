// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sqlagent/cli/internal/bridge"
	"sqlagent/cli/internal/keychain"
	"sqlagent/cli/internal/llm"
	"sqlagent/cli/internal/logging"
)

// EnvGoogleAPIKey overrides the API key stored in the keychain.
const EnvGoogleAPIKey = "GOOGLE_API_KEY"

var (
	askMode   string
	askRisky  bool
	askRemote string
	askTLS    bool
)

// askCmd answers questions with Gemini, optionally through the SQL tool.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask questions about the data in plain language",
	Long: `The ask command sends a question to Gemini. In agent mode (the default) the
model may call the execute_sql tool, which runs every statement through the
guard, and answers from the results. In plain mode the model answers without
database access. With --risky the tool runs statements unguarded (demo only).

Without a question the command starts an interactive session.

The API key is read from GOOGLE_API_KEY or from the keychain
(see 'sqlagent apikey set').

With --remote the tool calls go to a 'sqlagent serve' gRPC endpoint instead of
a local database.`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	f := askCmd.Flags()
	f.StringVar(&askMode, "mode", "agent", "answer mode: plain, agent or risky")
	f.BoolVar(&askRisky, "risky", false, "shorthand for --mode risky (demo only)")
	f.StringVar(&askRemote, "remote", "", "gRPC address of a sqlagent tool server")
	f.BoolVar(&askTLS, "tls", false, "use TLS for --remote")
}

// resolveAPIKey reads the Gemini key from the environment, then the keychain.
func resolveAPIKey() (string, error) {
	if k := strings.TrimSpace(os.Getenv(EnvGoogleAPIKey)); k != "" {
		return k, nil
	}
	km, err := keychain.GetManager()
	if err != nil {
		return "", fmt.Errorf("%s is not set and the keychain is unavailable: %w", EnvGoogleAPIKey, err)
	}
	k, err := km.LoadAPIKey()
	if errors.Is(err, keychain.ErrNotFound) {
		return "", fmt.Errorf("API key is missing: set %s or run 'sqlagent apikey set'", EnvGoogleAPIKey)
	}
	return k, err
}

// answerer answers one question.
type answerer func(ctx context.Context, question string) error

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mode, err := llm.ParseMode(askMode)
	if err != nil {
		return err
	}
	if askRisky {
		mode = llm.ModeRisky
	}
	if mode == llm.ModeRisky && askRemote != "" {
		return errors.New("--risky cannot be combined with --remote; remote tools are always guarded")
	}

	key, err := resolveAPIKey()
	if err != nil {
		return err
	}
	cfg := current.cfg
	model, err := llm.NewGemini(ctx, llm.GeminiConfig{
		APIKey:      key,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLMTimeout(),
	})
	if err != nil {
		logging.PresentLLMError(err)
		return errReported
	}

	out := cmd.OutOrStdout()
	var answer answerer
	switch mode {
	case llm.ModePlain:
		answer = func(ctx context.Context, q string) error {
			stop := startInlineSpinner(out, "thinking")
			text, err := llm.Plain(ctx, model, q)
			stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, text)
			return nil
		}
	default:
		agent, closeTool, err := buildAgent(ctx, model, mode)
		if err != nil {
			return err
		}
		defer closeTool()
		if mode == llm.ModeRisky {
			printRiskyBanner(out)
		}
		answer = func(ctx context.Context, q string) error {
			stop := startInlineSpinner(out, "thinking")
			ans, err := agent.Ask(ctx, q)
			stop()
			printSteps(out, ans)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ans.Text)
			return nil
		}
	}

	if len(args) > 0 {
		if err := answer(ctx, strings.Join(args, " ")); err != nil {
			presentAskError(err)
			return errReported
		}
		return nil
	}
	return askLoop(ctx, cmd.InOrStdin(), out, answer)
}

// buildAgent wires the agent to a local or remote tool. The close function
// releases whatever the tool holds.
func buildAgent(ctx context.Context, model *llm.Gemini, mode llm.Mode) (*llm.Agent, func(), error) {
	if askRemote != "" {
		client, err := bridge.Dial(askRemote, askTLS)
		if err != nil {
			return nil, nil, err
		}
		system := llm.SystemPrompt(mode, "Inspect sqlite_master or information_schema to discover the tables.")
		return llm.NewAgent(model, client, system, current.log), func() { _ = client.Close() }, nil
	}

	exec, _, closeDB, err := openExecutor(ctx)
	if err != nil {
		return nil, nil, err
	}
	schema, err := exec.Schema().Describe(ctx)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	var tool bridge.Tool = bridge.NewGuarded(exec)
	if mode == llm.ModeRisky {
		tool = bridge.NewUnguarded(exec)
	}
	current.log.Debug("agent ready", zap.String("mode", string(mode)), zap.String("model", model.Model()))
	return llm.NewAgent(model, tool, llm.SystemPrompt(mode, schema), current.log), closeDB, nil
}

// printSteps lists the SQL the agent ran and whether each call succeeded.
func printSteps(w io.Writer, ans *llm.Answer) {
	if ans == nil {
		return
	}
	for _, s := range ans.Steps {
		mark := pterm.FgGreen.Sprint("✓")
		if s.Failed() {
			mark = pterm.FgRed.Sprint("✗")
		}
		fmt.Fprintf(w, "%s %s\n", mark, pterm.FgGray.Sprint(logging.QueryPreview(s.SQL, 120)))
	}
}

func presentAskError(err error) {
	if errors.Is(err, llm.ErrTooManyRounds) || errors.Is(err, context.Canceled) {
		pterm.Error.Println(err.Error())
		return
	}
	logging.PresentLLMError(err)
}

func askLoop(ctx context.Context, in io.Reader, out io.Writer, answer answerer) error {
	fmt.Fprintln(out, `Ask a question, or "quit" to leave.`)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "? ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		q := strings.TrimSpace(sc.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}
		if err := answer(ctx, q); err != nil {
			presentAskError(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
