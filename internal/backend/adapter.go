// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend is the client for a running sqlagent HTTP API.
// It backs `sqlagent status` and lets scripts reuse the server's guard without
// opening the database themselves.
package backend

import (
	"context"

	"sqlagent/cli/internal/sqlexec"
)

// API defines the server operations the CLI depends on.
// Implementations may call a real server or provide mocks for tests.
type API interface {
	// Health reports whether the server can reach its database.
	Health(ctx context.Context) (*Health, error)
	// DatabaseInfo returns row counts per table.
	DatabaseInfo(ctx context.Context) (*DatabaseInfo, error)
	// Query runs one statement through the server's guard.
	Query(ctx context.Context, sql string) (*sqlexec.Result, error)
	// Analyze runs a keyword report for prompt.
	Analyze(ctx context.Context, prompt string) (*Analysis, error)
}

// Health is the /api/health payload.
type Health struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Healthy reports whether the server answered "healthy".
func (h *Health) Healthy() bool { return h != nil && h.Status == "healthy" }

// DatabaseInfo is the /api/database/info payload.
type DatabaseInfo struct {
	Database    string           `json:"database"`
	TableCounts map[string]int64 `json:"table_counts"`
	Timestamp   string           `json:"timestamp"`
}

// Analysis is the /api/analyze payload. ChartData is left raw for the caller.
type Analysis struct {
	TextResponse string         `json:"textResponse"`
	ChartData    map[string]any `json:"chartData"`
	AnalysisType string         `json:"analysisType"`
	Timestamp    string         `json:"timestamp"`
}
