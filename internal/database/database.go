// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package database opens the connection pool behind the guarded query path.
//
// A connection string is resolved through package dsn, mapped to a database/sql
// driver (modernc.org/sqlite or pgx's stdlib adapter), sized to the configured pool
// and pinged before it is handed out. SQLite files get a busy timeout so short
// write contention from a fixture load surfaces as a lock error only after a wait.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"sqlagent/cli/internal/dsn"
)

// DefaultSQLiteBusyTimeout is applied to SQLite DSNs that do not set one.
const DefaultSQLiteBusyTimeout = 5 * time.Second

// DB is an open pool together with the engine it talks to.
type DB struct {
	SQL  *sql.DB
	Type dsn.DBType
	Info *dsn.DSNInfo
}

// Open resolves rawDSN, opens a pool of at most poolSize connections and verifies
// it with a ping bounded by ctx.
func Open(ctx context.Context, rawDSN string, poolSize int) (*DB, error) {
	if poolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", poolSize)
	}

	info, err := dsn.ParseInfo(rawDSN)
	if err != nil {
		return nil, err
	}
	if info.Type == dsn.DBTypeSQLite {
		if _, ok := info.Params["_pragma"]; !ok && !info.IsMemory() {
			info.Params["_pragma"] = fmt.Sprintf("busy_timeout(%d)", DefaultSQLiteBusyTimeout.Milliseconds())
		}
	}

	connStr, err := normalize(info)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(info.Type.DriverName(), connStr)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Type, err)
	}

	// Every :memory: connection is a separate empty database, so keep exactly one
	// and never let it expire.
	if info.IsMemory() {
		poolSize = 1
	} else {
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s: %w", info.Display(), err)
	}

	return &DB{SQL: db, Type: info.Type, Info: info}, nil
}

func normalize(info *dsn.DSNInfo) (string, error) {
	r, err := dsn.For(info.Type)
	if err != nil {
		return "", err
	}
	return r.Normalize(info)
}

// Close closes the pool.
func (d *DB) Close() error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}

// Placeholder returns the bind parameter marker for the n-th argument (1-based).
func (d *DB) Placeholder(n int) string {
	if d.Type == dsn.DBTypePostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
