// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package llm connects a language model to the SQL tool.
//
// Model is the plain text interface (one prompt in, one answer out). ToolModel adds
// function calling: Agent declares the single execute_sql tool, forwards each call
// to a bridge.Tool and feeds the result back, for at most MaxRounds rounds.
// Gemini implements both over google.golang.org/genai; tests use a scripted fake.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/sqlexec"
)

// Model answers a prompt with text.
type Model interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Role is the author of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// ToolCall is one function call requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	ID     string
	Name   string
	Output map[string]any
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Text    string
	Calls   []ToolCall
	Results []ToolResult
}

// ToolSpec declares a function the model may call. Params maps each string
// parameter to its description; all are required.
type ToolSpec struct {
	Name        string
	Description string
	Params      map[string]string
}

// Reply is one model turn: text, calls, or both.
type Reply struct {
	Text  string
	Calls []ToolCall
}

// ToolModel is a model that supports function calling.
type ToolModel interface {
	Generate(ctx context.Context, system string, history []Message, tools []ToolSpec) (*Reply, error)
}

// ToolOutput renders a tool outcome for the model: the result's JSON shape
// ({"columns","rows","row_count"}) or {"error": "ERROR: ..."}.
func ToolOutput(res *sqlexec.Result, err error) map[string]any {
	if err != nil {
		return map[string]any{"error": qerr.Caller(err)}
	}
	raw, mErr := json.Marshal(res)
	if mErr != nil {
		return map[string]any{"error": qerr.CallerPrefix + fmt.Sprintf("could not encode result: %v", mErr)}
	}
	var out map[string]any
	if mErr := json.Unmarshal(raw, &out); mErr != nil {
		return map[string]any{"error": qerr.CallerPrefix + "could not encode result"}
	}
	return out
}
