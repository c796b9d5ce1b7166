// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package fixture

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sqlagent/cli/internal/database"
)

// insertBatch is the number of rows per INSERT statement.
const insertBatch = 50

// Seed creates the fixture tables and loads generated rows table by table, each
// table in its own transaction. Progress is recorded in state when it is non-nil.
// With opts.Reset the tables are dropped first; without it, loading into tables
// that already hold rows fails on the primary key.
func Seed(ctx context.Context, db *database.DB, opts Options, state *ProgressState, log *zap.Logger) (map[string]int, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if state == nil {
		state = NewProgressState()
	}
	log = log.Named("fixture")

	if opts.Reset {
		if err := Drop(ctx, db); err != nil {
			return nil, err
		}
	}
	for _, t := range Tables {
		if _, err := db.SQL.ExecContext(ctx, ddl[t]); err != nil {
			return nil, fmt.Errorf("create table %s: %w", t, err)
		}
	}

	data := generate(opts)
	state.AddExpectedBatch(Tables)

	counts := make(map[string]int, len(Tables))
	for _, t := range Tables {
		rows := data[t]
		state.StartTable(t, len(rows))
		if err := insertRows(ctx, db, t, rows, state); err != nil {
			state.FailTable(t, err.Error())
			return counts, fmt.Errorf("load %s: %w", t, err)
		}
		state.CompleteTable(t)
		counts[t] = len(rows)
		log.Debug("table loaded", zap.String("table", t), zap.Int("rows", len(rows)))
	}

	log.Info("fixture loaded", zap.Any("rows", counts))
	return counts, nil
}

// Drop removes the fixture tables, children first.
func Drop(ctx context.Context, db *database.DB) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := db.SQL.ExecContext(ctx, "DROP TABLE IF EXISTS "+Tables[i]); err != nil {
			return fmt.Errorf("drop table %s: %w", Tables[i], err)
		}
	}
	return nil
}

func insertRows(ctx context.Context, db *database.DB, table string, rows [][]any, state *ProgressState) error {
	if len(rows) == 0 {
		return nil
	}
	cols := columns[table]

	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback if commit doesn't happen

	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		batch := rows[start:end]

		var (
			b    strings.Builder
			args = make([]any, 0, len(batch)*len(cols))
			n    = 1
		)
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(cols, ", "))
		for i, row := range batch {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			for j := range row {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(db.Placeholder(n))
				n++
			}
			b.WriteString(")")
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return err
		}
		state.Advance(table, len(batch))
	}

	return tx.Commit()
}
