// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"sqlagent/cli/internal/sqlexec"
)

// ErrEmptyPrompt is returned by Analyze for a blank prompt.
var ErrEmptyPrompt = errors.New("no prompt provided")

// Querier runs trusted, parameterized SQL. *sqlexec.Executor satisfies it.
type Querier interface {
	QueryParams(ctx context.Context, query string, args ...any) (*sqlexec.Result, error)
}

// Response is the /api/analyze payload.
type Response struct {
	TextResponse string `json:"textResponse"`
	ChartData    Chart  `json:"chartData"`
	AnalysisType Kind   `json:"analysisType"`
	Timestamp    string `json:"timestamp"`
}

// Analyzer builds reports for prompts.
type Analyzer struct {
	q   Querier
	ph  func(int) string
	log *zap.Logger
	now func() time.Time
}

// New creates an Analyzer over the executor's trusted query path.
func New(exec *sqlexec.Executor, log *zap.Logger) *Analyzer {
	return NewWithQuerier(exec, exec.DB().Placeholder, log)
}

// NewWithQuerier creates an Analyzer over any Querier. ph renders the
// placeholder for argument n ("?" or "$n").
func NewWithQuerier(q Querier, ph func(int) string, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{q: q, ph: ph, log: log.Named("report"), now: time.Now}
}

// Analyze classifies prompt and runs the matching report.
func (a *Analyzer) Analyze(ctx context.Context, prompt string) (*Response, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	start := time.Now()
	kind := Classify(prompt)

	var (
		text  string
		chart Chart
		err   error
	)
	switch kind {
	case KindTimeBased:
		text, chart, err = a.timeBased(ctx, prompt)
	case KindSales:
		text, chart, err = a.sales(ctx)
	case KindCustomers:
		text, chart, err = a.customers(ctx, prompt)
	case KindProducts:
		text, chart, err = a.products(ctx)
	case KindOrders:
		text, chart, err = a.orders(ctx)
	default:
		text, chart, err = a.general(ctx)
	}
	if err != nil {
		a.log.Warn("report failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}

	a.log.Debug("report built", zap.String("kind", string(kind)), zap.Duration("duration", time.Since(start)))
	return &Response{
		TextResponse: text,
		ChartData:    chart,
		AnalysisType: kind,
		Timestamp:    a.now().Format(time.RFC3339),
	}, nil
}

// rows runs q and returns its rows.
func (a *Analyzer) rows(ctx context.Context, q string, args ...any) ([][]any, error) {
	res, err := a.q.QueryParams(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// row runs q and returns its first row, padded with nils to n cells.
func (a *Analyzer) row(ctx context.Context, n int, q string, args ...any) ([]any, error) {
	rows, err := a.rows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	if len(rows) > 0 {
		copy(out, rows[0])
	}
	return out, nil
}

// num converts a numeric cell to float64. NULL and non-numeric text are 0.
func num(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case int:
		return float64(t)
	case float64:
		return t
	case float32:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	}
	return 0
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

// money renders cents as dollars with thousands separators.
func money(cents float64) string {
	return "$" + humanize.FormatFloat("#,###.##", cents/100)
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
