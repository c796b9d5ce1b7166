// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package fixture

import (
	"sync"
	"unicode/utf8"
)

// TableProgress is a point-in-time view of one table's load.
type TableProgress struct {
	Table    string
	Inserted int
	Total    int
	Done     bool
	Failed   string
}

// ProgressState tracks the load progress for all tables in the current run.
// It maintains information about which tables are active, completed, or failed.
type ProgressState struct {
	// Active maps table names to rows inserted so far
	Active map[string]int
	// Totals maps table names to the number of rows planned
	Totals map[string]int
	// Completed contains the set of successfully loaded tables
	Completed map[string]struct{}
	// Failed maps table names to failure reasons
	Failed map[string]string
	// Order preserves the sequence in which tables were started
	Order []string
	// Expected contains the set of tables that are planned to be loaded
	Expected map[string]struct{}
	// mu protects concurrent access to all fields
	mu sync.Mutex
}

// NewProgressState creates a new ProgressState with initialized maps.
func NewProgressState() *ProgressState {
	return &ProgressState{
		Active:    make(map[string]int),
		Totals:    make(map[string]int),
		Completed: make(map[string]struct{}),
		Failed:    make(map[string]string),
		Order:     []string{},
		Expected:  make(map[string]struct{}),
	}
}

// AddExpectedBatch marks multiple tables as expected to be loaded.
func (ps *ProgressState) AddExpectedBatch(tableNames []string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, name := range tableNames {
		ps.Expected[name] = struct{}{}
	}
}

// StartTable marks a table as active with the number of rows it will receive.
// If the table wasn't in the expected list, it's automatically added.
func (ps *ProgressState) StartTable(tableName string, total int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.Active[tableName]; !exists {
		ps.Order = append(ps.Order, tableName)
	}
	ps.Active[tableName] = 0
	ps.Totals[tableName] = total
	ps.Expected[tableName] = struct{}{}
}

// Advance records n more inserted rows for an active table.
func (ps *ProgressState) Advance(tableName string, n int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, ok := ps.Active[tableName]; ok {
		ps.Active[tableName] += n
	}
}

// CompleteTable marks a table as successfully completed.
func (ps *ProgressState) CompleteTable(tableName string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.Active, tableName)
	ps.Completed[tableName] = struct{}{}
}

// FailTable marks a table as failed with a reason.
func (ps *ProgressState) FailTable(tableName string, reason string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.Active, tableName)
	ps.Failed[tableName] = reason
}

// ExpectedCount returns the total number of expected tables.
func (ps *ProgressState) ExpectedCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.Expected)
}

// CompletedCount returns the total number of completed tables.
func (ps *ProgressState) CompletedCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.Completed)
}

// HasFailures returns true if any table has failed.
func (ps *ProgressState) HasFailures() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.Failed) > 0
}

// IsFullyCompleted returns true if all expected tables have been completed.
func (ps *ProgressState) IsFullyCompleted() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	expectedCount := len(ps.Expected)
	return expectedCount > 0 && len(ps.Completed) == expectedCount
}

// Snapshot returns per-table progress in start order.
func (ps *ProgressState) Snapshot() []TableProgress {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	out := make([]TableProgress, 0, len(ps.Order))
	for _, name := range ps.Order {
		tp := TableProgress{Table: name, Total: ps.Totals[name], Failed: ps.Failed[name]}
		if n, ok := ps.Active[name]; ok {
			tp.Inserted = n
		}
		if _, ok := ps.Completed[name]; ok {
			tp.Done = true
			tp.Inserted = tp.Total
		}
		out = append(out, tp)
	}
	return out
}

// LinePadder pads rendered progress lines to a common width so a shorter
// redraw fully overwrites the previous one.
type LinePadder struct {
	// MaxLineLen tracks the maximum line length to prevent flickering
	MaxLineLen int
	mu         sync.Mutex
}

// FormatLine formats a line for display with proper padding to prevent flickering.
// It ensures all lines are padded to the same maximum length.
func (lp *LinePadder) FormatLine(line string) string {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	lineLen := utf8.RuneCountInString(line)
	if lineLen > lp.MaxLineLen {
		lp.MaxLineLen = lineLen
	}

	if pad := lp.MaxLineLen - lineLen; pad > 0 {
		return line + repeatSpaces(pad)
	}
	return line
}

// repeatSpaces returns a string of n spaces.
func repeatSpaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
