// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net/url"
	"sort"
	"strings"
)

// SQLiteResolver handles sqlite:// and file: DSNs for the modernc.org/sqlite driver.
//
// Accepted forms:
//
//	sqlite://relative/path.db
//	sqlite:///absolute/path.db
//	sqlite://:memory:
//	file:path.db?_pragma=busy_timeout(5000)
//	path/to/file.db
type SQLiteResolver struct{}

// NewSQLiteResolver creates a new SQLite resolver
func NewSQLiteResolver() *SQLiteResolver {
	return &SQLiteResolver{}
}

// Parse extracts the file path and query parameters.
func (r *SQLiteResolver) Parse(dsn string) (*DSNInfo, error) {
	if dsn == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid SQLite connection string")
	}

	lower := strings.ToLower(dsn)
	var rest string
	switch {
	case strings.HasPrefix(lower, "sqlite3://"):
		rest = dsn[len("sqlite3://"):]
	case strings.HasPrefix(lower, "sqlite://"):
		rest = dsn[len("sqlite://"):]
	case strings.HasPrefix(lower, "file:"):
		rest = dsn[len("file:"):]
	case !strings.Contains(lower, "://") && isSQLiteFileName(lower):
		rest = dsn
	default:
		return nil, NewParseError(dsn, "missing or invalid scheme", "use sqlite://path/to/file.db")
	}

	info := &DSNInfo{
		Type:     DBTypeSQLite,
		Params:   make(map[string]string),
		Original: dsn,
	}

	path, query, _ := strings.Cut(rest, "?")
	info.Path = strings.TrimSpace(path)
	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return nil, NewParseError(dsn, "invalid query parameters", "parameters must be key=value pairs separated by &")
		}
		for key, vals := range values {
			if len(vals) > 0 {
				info.Params[key] = vals[0]
			}
		}
	}

	if info.Path == "" {
		return nil, NewParseError(dsn, "missing database file path", "use sqlite://path/to/file.db or sqlite://:memory:")
	}

	return info, nil
}

// Normalize renders a file: URI the driver accepts. Parameters are emitted in
// sorted order so the same input always yields the same string.
func (r *SQLiteResolver) Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}

	var builder strings.Builder
	builder.WriteString("file:")
	builder.WriteString(info.Path)

	if len(info.Params) > 0 {
		keys := make([]string, 0, len(info.Params))
		for k := range info.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		builder.WriteString("?")
		for i, k := range keys {
			if i > 0 {
				builder.WriteString("&")
			}
			builder.WriteString(url.QueryEscape(k))
			builder.WriteString("=")
			builder.WriteString(url.QueryEscape(info.Params[k]))
		}
	}

	return builder.String(), nil
}

// Validate checks if the DSN is valid for SQLite
func (r *SQLiteResolver) Validate(dsn string) error {
	info, err := r.Parse(dsn)
	if err != nil {
		return err
	}
	if strings.ContainsRune(info.Path, 0) {
		return NewParseError(dsn, "path contains a NUL byte", "")
	}
	return nil
}

// IsMemory reports whether the DSN names an in-memory database.
func (d *DSNInfo) IsMemory() bool {
	return d.Type == DBTypeSQLite && (d.Path == ":memory:" || d.Params["mode"] == "memory")
}
