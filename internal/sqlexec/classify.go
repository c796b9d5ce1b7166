// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"

	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/logging"
)

// maxBackendMessage caps the engine text echoed to a caller for unrecognized failures.
const maxBackendMessage = 200

// Friendly messages for the backend failures callers hit most.
const (
	msgNoTable   = "The requested table does not exist in the database."
	msgNoColumn  = "The requested column does not exist in the table."
	msgSyntax    = "There is a syntax error in the SQL query."
	msgLocked    = "The database is currently locked. Please try again later."
	msgTimeout   = "The query did not finish within the time limit."
	msgPoolBusy  = "All database connections are busy. Please try again later."
	msgCancelled = "The request was cancelled."
)

var (
	// PostgreSQL phrases these as `relation "x" does not exist` and
	// `column "x" does not exist`.
	rePgNoTable  = regexp.MustCompile(`(?i)relation "[^"]*" does not exist`)
	rePgNoColumn = regexp.MustCompile(`(?i)column "[^"]*" (of relation "[^"]*" )?does not exist`)
	rePgLocation = regexp.MustCompile(`\s*\(SQLSTATE [0-9A-Z]+\)`)
)

// classify turns a driver or context error into a *errors.E. ctx is the query
// context; its deadline decides between a timeout and a caller cancellation.
func classify(ctx context.Context, err error) *qerr.E {
	if err == nil {
		return nil
	}
	var typed *qerr.E
	if stderrors.As(err, &typed) {
		return typed
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return qerr.Wrap(qerr.QueryTimeout, msgTimeout, err)
	}
	if stderrors.Is(err, context.Canceled) {
		return qerr.Wrap(qerr.QueryTimeout, msgCancelled, err)
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "no such table"), rePgNoTable.MatchString(lower):
		return qerr.Wrap(qerr.BackendExecutionFailure, msgNoTable, err)
	case strings.Contains(lower, "no such column"), rePgNoColumn.MatchString(lower):
		return qerr.Wrap(qerr.BackendExecutionFailure, msgNoColumn, err)
	case strings.Contains(lower, "syntax error"):
		return qerr.Wrap(qerr.BackendExecutionFailure, msgSyntax, err)
	case strings.Contains(lower, "database is locked"), strings.Contains(lower, "database is busy"),
		strings.Contains(lower, "sqlite_busy"), strings.Contains(lower, "lock timeout"):
		return qerr.Wrap(qerr.ResourceExhausted, msgLocked, err)
	case strings.Contains(lower, "canceling statement due to statement timeout"):
		return qerr.Wrap(qerr.QueryTimeout, msgTimeout, err)
	}

	return qerr.Wrap(qerr.BackendExecutionFailure, "Database error: "+backendMessage(err.Error()), err)
}

// backendMessage sanitizes engine text for a caller: secrets masked, paths
// stripped, SQLSTATE suffix dropped, capped at maxBackendMessage characters.
func backendMessage(msg string) string {
	msg = logging.StripPaths(logging.Mask(msg))
	msg = rePgLocation.ReplaceAllString(msg, "")
	msg = strings.Join(strings.Fields(msg), " ")
	if r := []rune(msg); len(r) > maxBackendMessage {
		msg = string(r[:maxBackendMessage-3]) + "..."
	}
	return msg
}
