// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/sqlexec"
)

// Paths served by internal/httpapi.
const (
	pathQuery        = "/api/query"
	pathAnalyze      = "/api/analyze"
	pathHealth       = "/api/health"
	pathDatabaseInfo = "/api/database/info"
)

// HTTP implements API over the REST endpoints.
type HTTP struct {
	// baseURL is the base URL for all requests (e.g., "http://localhost:5000")
	baseURL string
	// client is the underlying HTTP client with configured timeout
	client *http.Client
}

// StatusError is a non-2xx answer that carried no error kind.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of the answer.
func (e *StatusError) StatusCode() int { return e.Status }

func newHTTP(baseURL string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Health calls GET /api/health. An unhealthy server (503) is not an error;
// the returned Health says so.
func (h *HTTP) Health(ctx context.Context) (*Health, error) {
	var out Health
	status, err := h.do(ctx, http.MethodGet, pathHealth, nil, &out)
	if err != nil && status != http.StatusServiceUnavailable {
		return nil, err
	}
	return &out, nil
}

// DatabaseInfo calls GET /api/database/info.
func (h *HTTP) DatabaseInfo(ctx context.Context) (*DatabaseInfo, error) {
	var out DatabaseInfo
	if _, err := h.do(ctx, http.MethodGet, pathDatabaseInfo, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query calls POST /api/query. Guard rejections and execution failures come back
// as *errors.E with the server's kind and message.
func (h *HTTP) Query(ctx context.Context, sql string) (*sqlexec.Result, error) {
	var out sqlexec.Result
	if _, err := h.do(ctx, http.MethodPost, pathQuery, map[string]string{"sql": sql}, &out); err != nil {
		return nil, err
	}
	out.RowCount = len(out.Rows)
	return &out, nil
}

// Analyze calls POST /api/analyze.
func (h *HTTP) Analyze(ctx context.Context, prompt string) (*Analysis, error) {
	var out Analysis
	if _, err := h.do(ctx, http.MethodPost, pathAnalyze, map[string]string{"prompt": prompt}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one request and decodes a JSON answer into out. The status code is
// returned with non-2xx errors so callers can accept specific failures.
func (h *HTTP) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode/100 != 2 {
		// Some failures (health) still carry a full payload.
		_ = json.Unmarshal(raw, out)
		return resp.StatusCode, decodeError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
	}
	return resp.StatusCode, nil
}

func decodeError(status int, raw []byte) error {
	var payload struct {
		Error string    `json:"error"`
		Kind  qerr.Kind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return &StatusError{Status: status, Message: strings.TrimSpace(string(raw))}
	}
	if payload.Kind != "" {
		return qerr.New(payload.Kind, strings.TrimPrefix(payload.Error, qerr.CallerPrefix))
	}
	return &StatusError{Status: status, Message: payload.Error}
}
