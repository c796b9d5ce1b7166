// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"sqlagent/cli/internal/dsn"
)

// Column describes one table column.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableInfo holds the structure of one table.
type TableInfo struct {
	// Name is the unqualified table name
	Name string `json:"name"`
	// Columns lists columns in declaration order
	Columns []Column `json:"columns"`
}

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is a plain, unquoted SQL identifier.
func ValidIdentifier(name string) bool { return reIdent.MatchString(name) }

// SchemaInspector provides database schema inspection and caching capabilities.
// It reads sqlite_master/pragma_table_info on SQLite and information_schema on
// PostgreSQL, through the executor so lookups share the pool bounds.
type SchemaInspector struct {
	// exec runs the catalog queries
	exec *Executor
	// tables caches the table list; nil until first load
	tables []string
	// cache stores table structure keyed by table name
	cache map[string]*TableInfo
	// mu protects concurrent access to the cache
	mu sync.RWMutex
}

// NewSchemaInspector creates a new SchemaInspector over the executor.
func NewSchemaInspector(exec *Executor) *SchemaInspector {
	return &SchemaInspector{
		exec:  exec,
		cache: make(map[string]*TableInfo),
	}
}

// Tables returns user table names in alphabetical order.
func (si *SchemaInspector) Tables(ctx context.Context) ([]string, error) {
	si.mu.RLock()
	if si.tables != nil {
		out := append([]string(nil), si.tables...)
		si.mu.RUnlock()
		return out, nil
	}
	si.mu.RUnlock()

	q := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	if si.exec.db.Type == dsn.DBTypePostgreSQL {
		q = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	}

	res, err := si.exec.QueryParams(ctx, q)
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		tables = append(tables, asString(row[0]))
	}

	si.mu.Lock()
	si.tables = tables
	si.mu.Unlock()

	return append([]string(nil), tables...), nil
}

// Table retrieves or caches the structure of one table.
// It returns cached data if available, otherwise queries the catalog.
func (si *SchemaInspector) Table(ctx context.Context, name string) (*TableInfo, error) {
	if !ValidIdentifier(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	// Check cache first
	si.mu.RLock()
	if info, exists := si.cache[name]; exists {
		si.mu.RUnlock()
		return info, nil
	}
	si.mu.RUnlock()

	var (
		res *Result
		err error
	)
	if si.exec.db.Type == dsn.DBTypePostgreSQL {
		res, err = si.exec.QueryParams(ctx, `
			SELECT c.column_name, c.data_type, c.is_nullable = 'NO',
				EXISTS (
					SELECT 1 FROM information_schema.table_constraints tc
					JOIN information_schema.key_column_usage kc
						ON tc.constraint_name = kc.constraint_name AND tc.table_schema = kc.table_schema
					WHERE tc.constraint_type = 'PRIMARY KEY'
						AND kc.table_schema = c.table_schema
						AND kc.table_name = c.table_name
						AND kc.column_name = c.column_name)
			FROM information_schema.columns c
			WHERE c.table_schema = current_schema() AND c.table_name = $1
			ORDER BY c.ordinal_position`, name)
	} else {
		res, err = si.exec.QueryParams(ctx,
			`SELECT name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`, name)
	}
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("table %q not found", name)
	}

	info := &TableInfo{Name: name, Columns: make([]Column, 0, len(res.Rows))}
	for _, row := range res.Rows {
		info.Columns = append(info.Columns, Column{
			Name:       asString(row[0]),
			Type:       strings.ToUpper(asString(row[1])),
			NotNull:    asBool(row[2]),
			PrimaryKey: asBool(row[3]),
		})
	}

	// Cache the result
	si.mu.Lock()
	si.cache[name] = info
	si.mu.Unlock()

	return info, nil
}

// Snapshot returns the structure of every table.
func (si *SchemaInspector) Snapshot(ctx context.Context) ([]*TableInfo, error) {
	tables, err := si.Tables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*TableInfo, 0, len(tables))
	for _, t := range tables {
		if !ValidIdentifier(t) {
			continue
		}
		info, err := si.Table(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Describe renders the schema as compact text, one table per line, for model
// prompts and the shell's schema command.
func (si *SchemaInspector) Describe(ctx context.Context) (string, error) {
	tables, err := si.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, t := range tables {
		b.WriteString(t.Name)
		b.WriteString("(")
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			if c.Type != "" {
				b.WriteString(" ")
				b.WriteString(c.Type)
			}
			if c.PrimaryKey {
				b.WriteString(" PK")
			}
		}
		b.WriteString(")\n")
	}
	return b.String(), nil
}

// ClearCache clears all cached schema information.
// This is useful when schema changes are expected.
func (si *SchemaInspector) ClearCache() {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.tables = nil
	si.cache = make(map[string]*TableInfo)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t == "1" || strings.EqualFold(t, "true")
	}
	return false
}

// AsInt64 converts a numeric cell to int64. ok is false for non-numeric values.
func AsInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	}
	return 0, false
}
