// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TableCounts counts rows in each table concurrently, never using more workers
// than the pool has slots. Table names must be plain identifiers.
func (e *Executor) TableCounts(ctx context.Context, tables []string) (map[string]int64, error) {
	for _, t := range tables {
		if !ValidIdentifier(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
	}

	var (
		mu     sync.Mutex
		counts = make(map[string]int64, len(tables))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.slots)
	for _, t := range tables {
		g.Go(func() error {
			// Identifier checked above; names cannot be bound as parameters.
			res, err := e.QueryParams(gctx, `SELECT COUNT(*) FROM "`+t+`"`)
			if err != nil {
				return err
			}
			var n int64
			if len(res.Rows) == 1 && len(res.Rows[0]) == 1 {
				n, _ = AsInt64(res.Rows[0][0])
			}
			mu.Lock()
			counts[t] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
