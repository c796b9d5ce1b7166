// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sqlagent/cli/internal/database"
	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/fixture"
	"sqlagent/cli/internal/guard"
	"sqlagent/cli/internal/report"
	"sqlagent/cli/internal/sqlexec"
)

type testAPI struct {
	srv  *Server
	db   *database.DB
	logs *observer.ObservedLogs
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "api.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = fixture.Seed(ctx, db, fixture.DefaultOptions(), nil, nil)
	require.NoError(t, err)

	g, err := guard.New(nil, guard.DefaultMaxRows)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	exec := sqlexec.New(db, g, sqlexec.DefaultOptions(), log)
	srv := New(exec, report.New(exec, log), log, Options{DatabaseLabel: "postgres://agent:hunter2@db:5432/shop"})
	srv.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return &testAPI{srv: srv, db: db, logs: logs}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.srv.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestQueryAccepted(t *testing.T) {
	api := newTestAPI(t)

	rec, out := api.do(t, http.MethodPost, "/api/query", `{"sql": "SELECT id, name FROM customers ORDER BY id"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []any{"id", "name"}, out["columns"])
	assert.EqualValues(t, 10, out["row_count"])
	rows := out["rows"].([]any)
	require.Len(t, rows, 10)
	assert.Equal(t, []any{float64(1), "John Doe"}, rows[0])
}

func TestQueryRejections(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		body   string
		status int
		kind   qerr.Kind
	}{
		{"write", `{"sql": "DELETE FROM customers"}`, http.StatusBadRequest, qerr.WriteOperation},
		{"stacked", `{"sql": "SELECT 1; SELECT 2"}`, http.StatusBadRequest, qerr.MultipleStatements},
		{"not select", `{"sql": "PRAGMA table_info(customers)"}`, http.StatusBadRequest, qerr.NotASelect},
		{"union", `{"sql": "SELECT name FROM customers UNION SELECT email FROM customers"}`, http.StatusBadRequest, qerr.DangerousPattern},
		{"too long", `{"sql": "SELECT ` + strings.Repeat("1", guard.MaxQueryLength) + `"}`, http.StatusRequestEntityTooLarge, qerr.InputTooLong},
		{"backend", `{"sql": "SELECT * FROM missing_table"}`, http.StatusUnprocessableEntity, qerr.BackendExecutionFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := api.do(t, http.MethodPost, "/api/query", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, string(tt.kind), out["kind"])
			assert.True(t, strings.HasPrefix(out["error"].(string), qerr.CallerPrefix), out["error"])
		})
	}

	var n int
	require.NoError(t, api.db.SQL.QueryRow("SELECT COUNT(*) FROM customers").Scan(&n))
	assert.Equal(t, 10, n)
}

func TestQueryMalformedBody(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{`not json`, `{}`, `{"sql": 5}`} {
		rec, out := api.do(t, http.MethodPost, "/api/query", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, out["error"], `"sql"`)
	}
}

func TestAnalyze(t *testing.T) {
	api := newTestAPI(t)

	rec, out := api.do(t, http.MethodPost, "/api/analyze", `{"prompt": "How many customers purchased in January 2024?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(report.KindTimeBased), out["analysisType"])
	assert.Contains(t, out["textResponse"], "January 2024")
	assert.NotNil(t, out["chartData"])
	assert.Equal(t, "2025-03-01T12:00:00Z", out["timestamp"])

	rec, out = api.do(t, http.MethodPost, "/api/analyze", `{"prompt": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No prompt provided", out["error"])
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec, out := api.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", out["status"])
	assert.Equal(t, "2025-03-01T12:00:00Z", out["timestamp"])

	require.NoError(t, api.db.Close())
	rec, out = api.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", out["status"])
}

func TestDatabaseInfo(t *testing.T) {
	api := newTestAPI(t)

	rec, out := api.do(t, http.MethodGet, "/api/database/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, out["database"], "hunter2")

	counts := out["table_counts"].(map[string]any)
	for _, table := range fixture.Tables {
		assert.Contains(t, counts, table)
	}
	assert.EqualValues(t, 10, counts["customers"])
	assert.EqualValues(t, 14, counts["order_items"])
}

func TestRoutingAndMiddleware(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(t, http.MethodGet, "/api/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = api.do(t, http.MethodOptions, "/api/query", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	api.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec, _ = api.do(t, http.MethodGet, "/api/health", "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	entries := api.logs.FilterMessage("http request").All()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1].ContextMap()
	assert.Equal(t, "/api/health", last["path"])
	assert.EqualValues(t, http.StatusOK, last["status"])
}

func TestServeShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	api := newTestAPI(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
