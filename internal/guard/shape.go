// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package guard

import (
	"fmt"
	"regexp"
)

// DefaultMaxRows is the row limit appended to unbounded queries.
const DefaultMaxRows = 200

var (
	reLimit = regexp.MustCompile(`(?i)\blimit\b`)

	// reAggregate marks output that is already small. Appending LIMIT there is
	// pointless or would cut the only row of an aggregate.
	reAggregate = regexp.MustCompile(`(?i)\bcount\(|\bgroup\s+by\b|\bsum\(|\bavg\(|\bmax\(|\bmin\(|\bdistinct\b`)
)

// Shaper bounds the result size of validated queries.
//
// This is a backstop against runaway scans, not a guarantee: a GROUP BY over a
// high-cardinality column is left alone and can still return many rows.
type Shaper struct {
	maxRows int
}

// NewShaper returns a Shaper appending LIMIT maxRows.
func NewShaper(maxRows int) (*Shaper, error) {
	if maxRows <= 0 {
		return nil, fmt.Errorf("max row limit must be positive, got %d", maxRows)
	}
	return &Shaper{maxRows: maxRows}, nil
}

// Shape returns q unchanged when it already has a LIMIT or aggregates, and q with
// " LIMIT <maxRows>" appended otherwise. Shape(Shape(q)) == Shape(q).
func (s *Shaper) Shape(q string) string {
	if reLimit.MatchString(q) || reAggregate.MatchString(q) {
		return q
	}
	// The only place query text is built by interpolation: maxRows is an int from
	// configuration, never caller text.
	return fmt.Sprintf("%s LIMIT %d", q, s.maxRows)
}
