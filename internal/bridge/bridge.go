// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge defines the SQL tool an agent calls and its implementations:
// the local guarded executor, the unguarded demo executor, and a gRPC client for
// a tool served by another sqlagent process (see grpcserver).
//
// Every implementation returns *errors.E on failure so the agent can render
// "ERROR: ..." the same way regardless of transport.
package bridge

import (
	"context"

	"sqlagent/cli/internal/bridge/grpcclient"
	"sqlagent/cli/internal/sqlexec"
)

// Tool executes one SQL statement on behalf of an agent.
type Tool interface {
	ExecuteSQL(ctx context.Context, sql string) (*sqlexec.Result, error)
}

// Guarded runs statements through the full validation pipeline.
type Guarded struct {
	exec *sqlexec.Executor
}

// NewGuarded wraps exec as a guarded tool.
func NewGuarded(exec *sqlexec.Executor) *Guarded { return &Guarded{exec: exec} }

func (g *Guarded) ExecuteSQL(ctx context.Context, sql string) (*sqlexec.Result, error) {
	return g.exec.ExecuteGuardedSQL(ctx, sql)
}

// Unguarded runs any single statement and commits it. Demo only: it must never
// be served over a network transport.
type Unguarded struct {
	exec *sqlexec.Executor
}

// NewUnguarded wraps exec as an unguarded tool.
func NewUnguarded(exec *sqlexec.Executor) *Unguarded { return &Unguarded{exec: exec} }

func (u *Unguarded) ExecuteSQL(ctx context.Context, sql string) (*sqlexec.Result, error) {
	return u.exec.ExecuteUnguarded(ctx, sql)
}

// Dial connects to a remote tool over gRPC.
func Dial(addr string, useTLS bool) (*grpcclient.Client, error) {
	return grpcclient.Dial(addr, useTLS)
}

var (
	_ Tool = (*Guarded)(nil)
	_ Tool = (*Unguarded)(nil)
	_ Tool = (*grpcclient.Client)(nil)
)
