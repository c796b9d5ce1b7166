// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httpapi serves the guarded executor and the report analyzer to the
// browser frontend.
//
// Endpoints:
//
//	POST /api/query          {"sql": "..."}     guarded execution
//	POST /api/analyze        {"prompt": "..."}  keyword report with chart data
//	GET  /api/health                            pool ping
//	GET  /api/database/info                     row counts per table
//
// Failures of /api/query answer {"error": "ERROR: ...", "kind": "..."} with the
// status from errors.HTTPStatus. The unguarded executor is never reachable here.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	qerr "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/report"
	"sqlagent/cli/internal/sqlexec"
)

// maxBodyBytes caps request bodies. Query length itself is checked by the guard.
const maxBodyBytes = 1 << 20

// Options configures the server.
type Options struct {
	// RequestTimeout bounds each request; zero means 60s.
	RequestTimeout time.Duration
	// DatabaseLabel names the database in /api/database/info; secrets are masked.
	DatabaseLabel string
}

// Server is the HTTP API.
type Server struct {
	exec     *sqlexec.Executor
	analyzer *report.Analyzer
	log      *zap.Logger
	opts     Options
	now      func() time.Time
}

// New creates a Server. A nil logger discards logs.
func New(exec *sqlexec.Executor, analyzer *report.Analyzer, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	opts.DatabaseLabel = logging.Mask(opts.DatabaseLabel)
	return &Server{exec: exec, analyzer: analyzer, log: log.Named("http"), opts: opts, now: time.Now}
}

// Handler returns the routed handler with CORS, request ids, logging and timeouts.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/database/info", s.handleDatabaseInfo)

	return cors(withRequestID(s.logRequests(s.withTimeout(mux))))
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()
	s.log.Info("http api listening", zap.String("addr", lis.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type queryRequest struct {
	SQL *string `json:"sql"`
}

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

type errorResponse struct {
	Error string    `json:"error"`
	Kind  qerr.Kind `json:"kind,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(w, r, &req); err != nil || req.SQL == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: qerr.CallerPrefix + `request body must be JSON with a "sql" string`})
		return
	}

	res, err := s.exec.ExecuteGuardedSQL(r.Context(), *req.SQL)
	if err != nil {
		kind := qerr.KindOf(err)
		writeJSON(w, qerr.HTTPStatus(kind), errorResponse{Error: qerr.Caller(err), Kind: kind})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}

	resp, err := s.analyzer.Analyze(r.Context(), req.Prompt)
	switch {
	case errors.Is(err, report.ErrEmptyPrompt):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No prompt provided"})
	case err != nil:
		s.log.Warn("analyze failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeJSON(w, qerr.HTTPStatus(qerr.KindOf(err)), errorResponse{Error: qerr.Caller(err)})
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ts := s.now().Format(time.RFC3339)
	if err := s.exec.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":    "unhealthy",
			"error":     qerr.Caller(err),
			"timestamp": ts,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "timestamp": ts})
}

type databaseInfo struct {
	Database    string           `json:"database,omitempty"`
	TableCounts map[string]int64 `json:"table_counts"`
	Timestamp   string           `json:"timestamp"`
}

func (s *Server) handleDatabaseInfo(w http.ResponseWriter, r *http.Request) {
	tables, err := s.exec.Schema().Tables(r.Context())
	if err == nil {
		var counts map[string]int64
		if counts, err = s.exec.TableCounts(r.Context(), tables); err == nil {
			writeJSON(w, http.StatusOK, databaseInfo{
				Database:    s.opts.DatabaseLabel,
				TableCounts: counts,
				Timestamp:   s.now().Format(time.RFC3339),
			})
			return
		}
	}
	s.log.Warn("database info failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	writeJSON(w, qerr.HTTPStatus(qerr.KindOf(err)), errorResponse{Error: qerr.Caller(err), Kind: qerr.KindOf(err)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
