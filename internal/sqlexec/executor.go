// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec provides the guarded SQL execution engine over a bounded
// database/sql connection pool.
//
// Every caller-supplied query goes through package guard first (length check,
// normalization, validation, shaping). Only accepted queries borrow a connection,
// and each borrow is bounded twice: by an acquire timeout (the pool is full) and by
// a query timeout (the engine is slow). Failures come back as *errors.E with a
// caller-safe message; the driver error stays wrapped for logs.
//
// Key features include:
//   - Guarded execution for untrusted SQL (ExecuteGuardedSQL)
//   - Parameterized execution for trusted internal templates (QueryParams)
//   - An unguarded transactional path for the risky demo (ExecuteUnguarded)
//   - Schema inspection for SQLite and PostgreSQL with a read-through cache
//   - JSON result formatting with proper type handling
package sqlexec

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"sqlagent/cli/internal/database"
	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/guard"
	"sqlagent/cli/internal/logging"
)

const queryPreviewLen = 100

// Options bound how the executor uses the pool.
type Options struct {
	// PoolSize caps concurrent queries. Zero uses the pool's MaxOpenConnections.
	PoolSize int
	// AcquireTimeout is how long a query waits for a free connection.
	AcquireTimeout time.Duration
	// QueryTimeout is how long a query may run once it has a connection.
	QueryTimeout time.Duration
	// QueryLogging logs every query at info level instead of debug.
	QueryLogging bool
}

// DefaultOptions returns the executor defaults.
func DefaultOptions() Options {
	return Options{
		PoolSize:       10,
		AcquireTimeout: 30 * time.Second,
		QueryTimeout:   30 * time.Second,
		QueryLogging:   true,
	}
}

// Executor executes SQL statements using a bounded connection pool.
// It is safe for concurrent use.
type Executor struct {
	db        *database.DB
	guard     *guard.Guard
	sem       *semaphore.Weighted
	slots     int
	opts      Options
	log       *zap.Logger
	inspector *SchemaInspector
}

// New creates an Executor over db. A nil logger discards logs.
func New(db *database.DB, g *guard.Guard, opts Options, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = def.AcquireTimeout
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = def.QueryTimeout
	}

	slots := opts.PoolSize
	if maxOpen := db.SQL.Stats().MaxOpenConnections; maxOpen > 0 && (slots <= 0 || slots > maxOpen) {
		slots = maxOpen
	}
	if slots <= 0 {
		slots = def.PoolSize
	}
	opts.PoolSize = slots

	e := &Executor{
		db:    db,
		guard: g,
		sem:   semaphore.NewWeighted(int64(slots)),
		slots: slots,
		opts:  opts,
		log:   log.Named("sqlexec"),
	}
	e.inspector = NewSchemaInspector(e)
	return e
}

// Guard returns the guard the executor validates with.
func (e *Executor) Guard() *guard.Guard { return e.guard }

// DB returns the underlying database handle.
func (e *Executor) DB() *database.DB { return e.db }

// Schema returns the executor's schema inspector.
func (e *Executor) Schema() *SchemaInspector { return e.inspector }

// Options returns the effective options.
func (e *Executor) Options() Options { return e.opts }

// ExecuteGuardedSQL validates, shapes and runs one untrusted query.
//
// Rejected input never borrows a connection. Errors are always *errors.E; use
// errors.Caller to render them for the caller.
func (e *Executor) ExecuteGuardedSQL(ctx context.Context, raw string) (*Result, error) {
	start := time.Now()
	logf := e.queryLogger()

	p, err := e.guard.Prepare(raw)
	logf("query received",
		zap.String("query", logging.QueryPreview(raw, queryPreviewLen)),
		zap.Stringer("verdict", p.Verdict))
	if err != nil {
		return nil, err
	}

	res, err := e.query(ctx, p.Shaped)
	if err != nil {
		e.log.Warn("query failed",
			zap.String("kind", string(qerr.KindOf(err))),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	logf("query executed",
		zap.Int("rows", res.RowCount),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

// QueryParams runs trusted SQL with placeholder arguments. It is for internal
// templates only: no validation and no shaping, same pool discipline.
func (e *Executor) QueryParams(ctx context.Context, query string, args ...any) (*Result, error) {
	res, err := e.query(ctx, query, args...)
	if err != nil {
		e.log.Debug("template query failed", zap.String("query", logging.QueryPreview(query, queryPreviewLen)), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// ExecuteUnguarded runs one statement of any kind inside a transaction and commits.
// It exists for the risky demo and must never be reachable from a network surface.
func (e *Executor) ExecuteUnguarded(ctx context.Context, raw string) (*Result, error) {
	if err := guard.CheckLength(raw); err != nil {
		return nil, err
	}
	stmt := guard.Normalize(raw)
	if stmt == "" {
		return nil, qerr.New(qerr.NotASelect, "empty statement")
	}

	e.log.Warn("unguarded statement", zap.String("query", logging.QueryPreview(stmt, queryPreviewLen)))

	conn, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	qctx, cancel := context.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	// Start a transaction so the statement is committed as a unit
	tx, err := conn.BeginTx(qctx, nil)
	if err != nil {
		return nil, classify(qctx, err)
	}
	defer tx.Rollback() // Rollback if commit doesn't happen

	var res *Result
	if guard.IsSelect(stmt) {
		rows, err := tx.QueryContext(qctx, stmt)
		if err != nil {
			return nil, classify(qctx, err)
		}
		res, err = collect(rows)
		if err != nil {
			return nil, classify(qctx, err)
		}
	} else {
		ct, err := tx.ExecContext(qctx, stmt)
		if err != nil {
			return nil, classify(qctx, err)
		}
		res = newResult(nil)
		res.RowsAffected, _ = ct.RowsAffected()
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(qctx, fmt.Errorf("commit failed: %w", err))
	}
	e.inspector.ClearCache()
	return res, nil
}

// Ping verifies that a connection can be borrowed and reaches the engine.
func (e *Executor) Ping(ctx context.Context) error {
	conn, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	qctx, cancel := context.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()
	if err := conn.PingContext(qctx); err != nil {
		return classify(qctx, err)
	}
	return nil
}

// queryLogger returns the level per-query lines are written at.
func (e *Executor) queryLogger() func(string, ...zap.Field) {
	if e.opts.QueryLogging {
		return e.log.Info
	}
	return e.log.Debug
}

// acquire borrows one pooled connection, waiting at most AcquireTimeout.
// The returned release must be called exactly once.
func (e *Executor) acquire(ctx context.Context) (*sql.Conn, func(), error) {
	actx, cancel := context.WithTimeout(ctx, e.opts.AcquireTimeout)
	defer cancel()

	if err := e.sem.Acquire(actx, 1); err != nil {
		return nil, nil, acquireError(ctx, err)
	}

	conn, err := e.db.SQL.Conn(actx)
	if err != nil {
		e.sem.Release(1)
		return nil, nil, acquireError(ctx, err)
	}

	release := func() {
		_ = conn.Close()
		e.sem.Release(1)
	}
	return conn, release, nil
}

func acquireError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return classify(ctx, ctx.Err())
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return qerr.Wrap(qerr.ResourceExhausted, msgPoolBusy, err)
	}
	return classify(ctx, err)
}

// query runs q on a borrowed connection under the query timeout.
func (e *Executor) query(ctx context.Context, q string, args ...any) (*Result, error) {
	conn, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	qctx, cancel := context.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	rows, err := conn.QueryContext(qctx, q, args...)
	if err != nil {
		return nil, classify(qctx, err)
	}
	res, err := collect(rows)
	if err != nil {
		return nil, classify(qctx, err)
	}
	return res, nil
}

// collect drains rows into a Result and closes them.
func collect(rows *sql.Rows) (*Result, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := newResult(cols)

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		normalizeRow(vals)
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res.RowCount = len(res.Rows)
	return res, nil
}
