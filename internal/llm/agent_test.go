// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlagent/cli/internal/bridge"
	"sqlagent/cli/internal/database"
	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/fixture"
	"sqlagent/cli/internal/guard"
	"sqlagent/cli/internal/sqlexec"
)

// scriptedModel replays replies in order and records what it was sent.
type scriptedModel struct {
	replies   []*Reply
	histories [][]Message
	tools     []ToolSpec
	err       error
}

func (m *scriptedModel) Generate(_ context.Context, _ string, history []Message, tools []ToolSpec) (*Reply, error) {
	m.histories = append(m.histories, append([]Message(nil), history...))
	m.tools = tools
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return &Reply{Text: "done"}, nil
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

func (m *scriptedModel) Run(context.Context, string) (string, error) {
	return "  plain answer \n", m.err
}

func sqlCall(id, sql string) ToolCall {
	return ToolCall{ID: id, Name: ToolName, Args: map[string]any{"sql": sql}}
}

func newExecutor(t *testing.T) *sqlexec.Executor {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "agent.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = fixture.Seed(ctx, db, fixture.Options{Customers: 3, Products: 10, Orders: 10}, nil, nil)
	require.NoError(t, err)

	g, err := guard.New(nil, 200)
	require.NoError(t, err)
	return sqlexec.New(db, g, sqlexec.DefaultOptions(), nil)
}

func TestAgentAnswersWithTool(t *testing.T) {
	exec := newExecutor(t)
	model := &scriptedModel{replies: []*Reply{
		{Calls: []ToolCall{sqlCall("c1", "SELECT COUNT(*) AS n FROM customers")}},
		{Text: "There are 3 customers."},
	}}
	agent := NewAgent(model, bridge.NewGuarded(exec), SystemPrompt(ModeAgent, "customers(id)"), nil)

	ans, err := agent.Ask(context.Background(), "How many customers?")
	require.NoError(t, err)
	assert.Equal(t, "There are 3 customers.", ans.Text)
	require.Len(t, ans.Steps, 1)
	assert.False(t, ans.Steps[0].Failed())
	assert.Equal(t, []any{[]any{float64(3)}}, ans.Steps[0].Output["rows"])
	assert.Equal(t, float64(1), ans.Steps[0].Output["row_count"])

	require.Len(t, model.tools, 1)
	assert.Equal(t, ToolName, model.tools[0].Name)
	assert.Equal(t, ToolDescription, model.tools[0].Description)

	// Second turn saw the question, the call and the result.
	require.Len(t, model.histories, 2)
	h := model.histories[1]
	require.Len(t, h, 3)
	assert.Equal(t, RoleModel, h[1].Role)
	assert.Equal(t, RoleTool, h[2].Role)
	assert.Equal(t, "c1", h[2].Results[0].ID)
}

func TestAgentToolRejectionIsFedBack(t *testing.T) {
	exec := newExecutor(t)
	model := &scriptedModel{replies: []*Reply{
		{Calls: []ToolCall{sqlCall("c1", "DELETE FROM orders")}},
		{Text: "I cannot delete data."},
	}}
	agent := NewAgent(model, bridge.NewGuarded(exec), "", nil)

	ans, err := agent.Ask(context.Background(), "Delete all orders")
	require.NoError(t, err)
	require.Len(t, ans.Steps, 1)
	assert.True(t, ans.Steps[0].Failed())
	assert.Equal(t, "ERROR: write operations are not allowed (blocked: DELETE)", ans.Steps[0].Output["error"])

	// The orders are still there.
	res, err := exec.ExecuteGuardedSQL(context.Background(), "SELECT COUNT(*) FROM orders")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Rows[0][0])
}

func TestAgentRiskyModeWrites(t *testing.T) {
	exec := newExecutor(t)
	model := &scriptedModel{replies: []*Reply{
		{Calls: []ToolCall{sqlCall("c1", "DELETE FROM refunds")}},
		{Text: "Deleted."},
	}}
	agent := NewAgent(model, bridge.NewUnguarded(exec), SystemPrompt(ModeRisky, ""), nil)

	ans, err := agent.Ask(context.Background(), "Delete refunds")
	require.NoError(t, err)
	require.Len(t, ans.Steps, 1)
	assert.Equal(t, float64(3), ans.Steps[0].Output["rows_affected"])
}

func TestAgentUnknownToolAndMissingArgument(t *testing.T) {
	exec := newExecutor(t)
	model := &scriptedModel{replies: []*Reply{
		{Calls: []ToolCall{
			{ID: "a", Name: "drop_everything"},
			{ID: "b", Name: ToolName, Args: map[string]any{}},
		}},
		{Text: "ok"},
	}}
	agent := NewAgent(model, bridge.NewGuarded(exec), "", nil)

	ans, err := agent.Ask(context.Background(), "?")
	require.NoError(t, err)
	require.Len(t, ans.Steps, 2)
	assert.Equal(t, "ERROR: unknown tool drop_everything", ans.Steps[0].Output["error"])
	assert.Equal(t, `ERROR: missing "sql" argument`, ans.Steps[1].Output["error"])
}

func TestAgentStopsAfterMaxRounds(t *testing.T) {
	exec := newExecutor(t)
	replies := make([]*Reply, MaxRounds+1)
	for i := range replies {
		replies[i] = &Reply{Calls: []ToolCall{sqlCall("c", "SELECT 1")}}
	}
	model := &scriptedModel{replies: replies}
	agent := NewAgent(model, bridge.NewGuarded(exec), "", nil)

	ans, err := agent.Ask(context.Background(), "loop")
	assert.ErrorIs(t, err, ErrTooManyRounds)
	assert.Len(t, ans.Steps, MaxRounds)
	assert.Len(t, model.histories, MaxRounds)
}

func TestAgentModelError(t *testing.T) {
	model := &scriptedModel{err: errors.New("429 Resource has been exhausted")}
	agent := NewAgent(model, nil, "", nil)

	_, err := agent.Ask(context.Background(), "hi")
	assert.EqualError(t, err, "429 Resource has been exhausted")
}

func TestPlain(t *testing.T) {
	out, err := Plain(context.Background(), &scriptedModel{}, "What is SQL?")
	require.NoError(t, err)
	assert.Equal(t, "plain answer", out)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAgent, "plain": ModePlain, " Agent ": ModeAgent, "RISKY": ModeRisky} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("yolo")
	assert.Error(t, err)
}

func TestSystemPromptIncludesSchema(t *testing.T) {
	assert.Contains(t, SystemPrompt(ModeAgent, "orders(id)"), "orders(id)")
	assert.Contains(t, SystemPrompt(ModeRisky, ""), "DEMO ONLY")
	assert.NotContains(t, SystemPrompt(ModePlain, "orders(id)"), "orders(id)")
}

func TestToolOutput(t *testing.T) {
	out := ToolOutput(nil, qerr.New(qerr.QueryTimeout, "too slow"))
	assert.Equal(t, map[string]any{"error": "ERROR: too slow"}, out)

	out = ToolOutput(nil, errors.New("raw driver text"))
	assert.Equal(t, "ERROR: unexpected internal error", out["error"])

	out = ToolOutput(&sqlexec.Result{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}, nil)
	assert.Equal(t, []any{"n"}, out["columns"])
	assert.Equal(t, float64(1), out["row_count"])
}
