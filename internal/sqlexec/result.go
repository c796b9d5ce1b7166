// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"encoding/json"
	"fmt"
	"time"
)

// Result is the tabular outcome of one query. Rows are positional, aligned with
// Columns, in the order the engine produced them.
type Result struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
	// RowsAffected is set only by ExecuteUnguarded for statements without a result set.
	RowsAffected int64 `json:"rows_affected,omitempty"`
}

func newResult(cols []string) *Result {
	if cols == nil {
		cols = []string{}
	}
	return &Result{Columns: cols, Rows: [][]any{}}
}

// MarshalJSON implements custom JSON marshaling for Result so driver values come
// out as plain JSON scalars.
func (r Result) MarshalJSON() ([]byte, error) {
	type Alias Result
	a := Alias(r)
	if a.Columns == nil {
		a.Columns = []string{}
	}
	a.RowCount = len(r.Rows)

	serializableRows := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		serializableRows[i] = make([]any, len(row))
		for j, val := range row {
			serializableRows[i][j] = jsonValue(val)
		}
	}
	a.Rows = serializableRows

	return json.Marshal(a)
}

// jsonValue converts driver values to JSON-serializable values.
func jsonValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		// Handle UUID as hex string, text stored as blob as string
		if len(v) == 16 && !isPrintable(v) {
			return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
				v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
				v[8], v[9], v[10], v[11], v[12], v[13], v[14], v[15])
		}
		if isPrintable(v) {
			return string(v)
		}
		return fmt.Sprintf("\\x%x", v)
	case [16]byte:
		return jsonValue(v[:])
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		// Keep the value as-is for all other types (strings, numbers, etc.)
		return v
	}
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			return false
		}
		if c == 0x7f {
			return false
		}
	}
	return true
}

// normalizeRow converts scanned driver values in place so a Result holds the same
// values whether or not it is marshaled.
func normalizeRow(row []any) {
	for i, v := range row {
		if b, ok := v.([]byte); ok {
			row[i] = jsonValue(append([]byte(nil), b...))
		}
	}
}
