// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines the wire contract of the guarded query tool transport.
// Requests and results travel as structpb.Struct, so the service needs no
// generated code: the request is {"sql": "..."} and the result is the JSON shape
// of sqlexec.Result ({"columns", "rows", "row_count"}). Failures travel as gRPC
// status errors whose message is the caller-visible "ERROR: ..." text, with the
// exact error kind in the x-error-kind trailer.
package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"sqlagent/cli/internal/sqlexec"
)

const (
	// ServiceName is the gRPC service name.
	ServiceName = "sqlagent.GuardedQuery"
	// MethodExecute is the only method.
	MethodExecute = "Execute"
	// FullMethod is the method path clients invoke.
	FullMethod = "/" + ServiceName + "/" + MethodExecute

	// RequestIDKey carries the request id in metadata.
	RequestIDKey = "x-request-id"
	// ErrorKindKey carries the error kind in trailers.
	ErrorKindKey = "x-error-kind"
)

// ToolCall models one SQL request arriving over the transport.
type ToolCall struct {
	RequestID string
	SQL       string
}

// EncodeRequest builds the request payload.
func EncodeRequest(sql string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"sql": sql})
}

// DecodeRequest extracts the SQL text. A missing or non-string field is an error.
func DecodeRequest(st *structpb.Struct) (string, error) {
	if st == nil {
		return "", errors.New("empty request")
	}
	v, ok := st.GetFields()["sql"]
	if !ok {
		return "", errors.New(`request has no "sql" field`)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", errors.New(`"sql" must be a string`)
	}
	return s.StringValue, nil
}

// EncodeResult converts a result to its struct payload through its JSON form,
// which already normalizes driver values to JSON scalars.
func EncodeResult(res *sqlexec.Result) (*structpb.Struct, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return structpb.NewStruct(m)
}

// DecodeResult converts a struct payload back into a result. Numbers come back
// as float64, as with any JSON decode.
func DecodeResult(st *structpb.Struct) (*sqlexec.Result, error) {
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	var res sqlexec.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if res.Columns == nil {
		res.Columns = []string{}
	}
	if res.Rows == nil {
		res.Rows = [][]any{}
	}
	res.RowCount = len(res.Rows)
	return &res, nil
}
