// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package model

import (
	"google.golang.org/grpc/codes"

	qerr "sqlagent/cli/internal/errors"
)

// CodeFor maps an error kind to its gRPC status code.
func CodeFor(kind qerr.Kind) codes.Code {
	switch kind {
	case qerr.WriteOperation, qerr.MultipleStatements, qerr.NotASelect, qerr.DangerousPattern, qerr.InputTooLong:
		return codes.InvalidArgument
	case qerr.BackendExecutionFailure:
		return codes.FailedPrecondition
	case qerr.ResourceExhausted:
		return codes.ResourceExhausted
	case qerr.QueryTimeout:
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// KindFor maps a status code back to an error kind when no x-error-kind trailer
// arrived. InvalidArgument cannot say which rejection it was and maps to
// NotASelect. ok is false for codes that did not come from the tool.
func KindFor(code codes.Code) (qerr.Kind, bool) {
	switch code {
	case codes.InvalidArgument:
		return qerr.NotASelect, true
	case codes.FailedPrecondition:
		return qerr.BackendExecutionFailure, true
	case codes.ResourceExhausted:
		return qerr.ResourceExhausted, true
	case codes.DeadlineExceeded:
		return qerr.QueryTimeout, true
	}
	return "", false
}
