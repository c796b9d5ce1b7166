// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import "fmt"

// DBType identifies the storage engine behind a connection string.
type DBType string

const (
	DBTypeSQLite     DBType = "sqlite"
	DBTypePostgreSQL DBType = "postgresql"
	DBTypeUnknown    DBType = "unknown"
)

// DriverName returns the database/sql driver registered for the engine.
func (t DBType) DriverName() string {
	switch t {
	case DBTypeSQLite:
		return "sqlite"
	case DBTypePostgreSQL:
		return "pgx"
	}
	return ""
}

// DSNInfo contains parsed information from a DSN string.
// Path is set for SQLite; the network fields are set for PostgreSQL.
type DSNInfo struct {
	Type     DBType
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// String returns the DSN as given.
func (d *DSNInfo) String() string {
	return d.Original
}

// Display returns a one-line description without credentials.
func (d *DSNInfo) Display() string {
	switch d.Type {
	case DBTypeSQLite:
		return "sqlite " + d.Path
	case DBTypePostgreSQL:
		return fmt.Sprintf("postgresql %s@%s:%s/%s", d.User, d.Host, d.Port, d.Database)
	}
	return string(d.Type)
}

// Resolver turns one engine's connection strings into DSNInfo and back into
// the form its database/sql driver expects.
type Resolver interface {
	Parse(dsn string) (*DSNInfo, error)
	Normalize(info *DSNInfo) (string, error)
	Validate(dsn string) error
}

// ParseError reports a connection string that cannot be used. DSN keeps the
// raw input and must never be printed without logging.Mask.
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	msg := "invalid connection string: " + e.Reason
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{DSN: dsn, Reason: reason, Hint: hint}
}
