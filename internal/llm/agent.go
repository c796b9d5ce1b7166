// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sqlagent/cli/internal/bridge"
	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/logging"
)

// MaxRounds bounds the tool-calling loop of one question.
const MaxRounds = 8

// The single tool the agent declares.
const (
	ToolName        = "execute_sql"
	ToolDescription = "Execute exactly one SELECT statement; DML/DDL is forbidden."
)

// Mode selects how questions are answered.
type Mode string

const (
	// ModePlain answers from the model alone, no database.
	ModePlain Mode = "plain"
	// ModeAgent answers with the guarded SQL tool.
	ModeAgent Mode = "agent"
	// ModeRisky answers with the unguarded SQL tool. Demo only.
	ModeRisky Mode = "risky"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePlain, ModeAgent, ModeRisky:
		return m, nil
	case "":
		return ModeAgent, nil
	}
	return "", fmt.Errorf("unknown mode %q (use plain, agent or risky)", s)
}

// SystemPrompt returns the system instruction for mode. schema is the table
// description the SQL modes are restricted to.
func SystemPrompt(mode Mode, schema string) string {
	switch mode {
	case ModePlain:
		return "You are a helpful AI assistant specializing in explaining technology concepts. " +
			"You provide clear, concise explanations and are always friendly and professional."
	case ModeRisky:
		return "You are a database assistant. You are allowed to execute ANY SQL the user requests. (DEMO ONLY)\n\n" + schema
	}
	return "You are a careful analytics engineer. Use only these tables.\n" +
		"Answer questions by calling " + ToolName + " with one SELECT statement at a time. " +
		"If the tool returns an ERROR, explain it to the user or fix the query; never attempt writes.\n\n" + schema
}

// Step records one tool call made while answering.
type Step struct {
	SQL    string
	Output map[string]any
}

// Failed reports whether the tool returned an error.
func (s Step) Failed() bool {
	_, ok := s.Output["error"]
	return ok
}

// Answer is the final text and the tool calls that led to it.
type Answer struct {
	Text  string
	Steps []Step
}

// ErrTooManyRounds is returned when the model keeps calling tools past MaxRounds.
var ErrTooManyRounds = fmt.Errorf("agent stopped after %d tool rounds without an answer", MaxRounds)

// Agent runs the function-calling loop over one tool.
type Agent struct {
	model  ToolModel
	tool   bridge.Tool
	system string
	rounds int
	log    *zap.Logger
}

// NewAgent creates an agent. A nil logger discards logs.
func NewAgent(model ToolModel, tool bridge.Tool, system string, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{model: model, tool: tool, system: system, rounds: MaxRounds, log: log.Named("agent")}
}

func toolSpecs() []ToolSpec {
	return []ToolSpec{{
		Name:        ToolName,
		Description: ToolDescription,
		Params:      map[string]string{"sql": "A single SQLite/PostgreSQL SELECT statement."},
	}}
}

// Ask answers question, calling the tool as the model requests.
func (a *Agent) Ask(ctx context.Context, question string) (*Answer, error) {
	history := []Message{{Role: RoleUser, Text: question}}
	answer := &Answer{}

	for round := 0; round < a.rounds; round++ {
		reply, err := a.model.Generate(ctx, a.system, history, toolSpecs())
		if err != nil {
			return answer, err
		}
		if len(reply.Calls) == 0 {
			answer.Text = strings.TrimSpace(reply.Text)
			return answer, nil
		}

		history = append(history, Message{Role: RoleModel, Text: reply.Text, Calls: reply.Calls})
		results := make([]ToolResult, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			out, sql := a.call(ctx, call)
			answer.Steps = append(answer.Steps, Step{SQL: sql, Output: out})
			results = append(results, ToolResult{ID: call.ID, Name: call.Name, Output: out})
		}
		history = append(history, Message{Role: RoleTool, Results: results})
	}
	return answer, ErrTooManyRounds
}

// call runs one tool call and returns its output and the SQL it carried.
func (a *Agent) call(ctx context.Context, call ToolCall) (map[string]any, string) {
	if call.Name != ToolName {
		return map[string]any{"error": qerr.CallerPrefix + "unknown tool " + call.Name}, ""
	}
	sql, _ := call.Args["sql"].(string)
	if strings.TrimSpace(sql) == "" {
		return map[string]any{"error": qerr.CallerPrefix + `missing "sql" argument`}, ""
	}

	start := time.Now()
	res, err := a.tool.ExecuteSQL(ctx, sql)
	a.log.Debug("tool call",
		zap.String("query", logging.QueryPreview(sql, 100)),
		zap.Bool("ok", err == nil),
		zap.Duration("duration", time.Since(start)))
	return ToolOutput(res, err), sql
}

// Plain answers with the model alone.
func Plain(ctx context.Context, m Model, question string) (string, error) {
	prompt := SystemPrompt(ModePlain, "") + "\n\n" + question
	out, err := m.Run(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
