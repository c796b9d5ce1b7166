// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package guard decides whether a piece of SQL text may run on the shared read path
// and rewrites accepted queries so their result size is bounded.
//
// Every query passes through the same linear stages, with no retries and no
// backtracking:
//
//	CheckLength -> Normalize -> Validator.Validate -> Shaper.Shape
//
// The SELECT-only whitelist is the real safety boundary. The keyword blocklist and
// the dangerous-pattern list run around it as defense in depth against a SELECT
// wrapper that smuggles side effects through a dialect extension.
//
// The package is pure: nothing here touches a database, so every function is safe
// for concurrent use.
package guard

import (
	"fmt"
	"unicode/utf8"

	qerr "sqlagent/cli/internal/errors"
)

// MaxQueryLength is the ceiling, in characters, for raw query text.
const MaxQueryLength = 10000

// CheckLength rejects raw text longer than MaxQueryLength characters. It runs on the
// raw input, before normalization.
func CheckLength(raw string) error {
	if n := utf8.RuneCountInString(raw); n > MaxQueryLength {
		return qerr.New(qerr.InputTooLong, fmt.Sprintf("query is %d characters long; the limit is %d", n, MaxQueryLength))
	}
	return nil
}

// Guard runs the pre-execution stages in their fixed order.
type Guard struct {
	validator *Validator
	shaper    *Shaper
}

// New creates a Guard with the given blocklist and row limit.
// A nil blocklist selects DefaultBlockedKeywords.
func New(blocked []string, maxRows int) (*Guard, error) {
	v, err := NewValidator(blocked)
	if err != nil {
		return nil, err
	}
	s, err := NewShaper(maxRows)
	if err != nil {
		return nil, err
	}
	return &Guard{validator: v, shaper: s}, nil
}

// Prepared is the outcome of the pre-execution stages for one query.
type Prepared struct {
	// Normalized is the trimmed, de-terminated text that was validated.
	Normalized string
	// Shaped is the text to execute. Empty when Verdict is a rejection.
	Shaped string
	// Verdict is the validator's decision.
	Verdict Verdict
}

// Prepare checks, normalizes, validates and shapes raw. On rejection it returns
// the populated Prepared (for logging) together with a *errors.E.
func (g *Guard) Prepare(raw string) (Prepared, error) {
	if err := CheckLength(raw); err != nil {
		return Prepared{Verdict: Reject(qerr.InputTooLong, "")}, err
	}

	p := Prepared{Normalized: Normalize(raw)}
	p.Verdict = g.validator.Validate(p.Normalized)
	if !p.Verdict.Valid() {
		return p, p.Verdict.Err()
	}
	p.Shaped = g.shaper.Shape(p.Normalized)
	return p, nil
}

// MaxRows returns the row limit the shaper appends.
func (g *Guard) MaxRows() int { return g.shaper.maxRows }

// BlockedKeywords returns the validator's write/DDL blocklist.
func (g *Guard) BlockedKeywords() []string {
	return append([]string(nil), g.validator.blocked...)
}
