// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package fixture

import (
	"context"
	"fmt"

	"sqlagent/cli/internal/database"
	"sqlagent/cli/internal/dsn"
)

// IntegrityReport is the outcome of Validate.
type IntegrityReport struct {
	// ForeignKeyViolations is the number of rows PRAGMA foreign_key_check reports.
	// Always zero on PostgreSQL, which enforces the constraints on write.
	ForeignKeyViolations int
	// OrphanedOrderItems counts order items whose order does not exist.
	OrphanedOrderItems int
	// OrphanedPayments counts payments whose order does not exist.
	OrphanedPayments int
}

// OK reports whether no integrity problem was found.
func (r IntegrityReport) OK() bool {
	return r.ForeignKeyViolations == 0 && r.OrphanedOrderItems == 0 && r.OrphanedPayments == 0
}

// Validate checks referential integrity of the loaded fixture.
func Validate(ctx context.Context, db *database.DB) (IntegrityReport, error) {
	var r IntegrityReport

	if db.Type == dsn.DBTypeSQLite {
		rows, err := db.SQL.QueryContext(ctx, "PRAGMA foreign_key_check")
		if err != nil {
			return r, fmt.Errorf("foreign key check: %w", err)
		}
		for rows.Next() {
			r.ForeignKeyViolations++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return r, fmt.Errorf("foreign key check: %w", err)
		}
	}

	orphans := []struct {
		dst   *int
		query string
	}{
		{&r.OrphanedOrderItems, `SELECT COUNT(*) FROM order_items oi LEFT JOIN orders o ON oi.order_id = o.id WHERE o.id IS NULL`},
		{&r.OrphanedPayments, `SELECT COUNT(*) FROM payments p LEFT JOIN orders o ON p.order_id = o.id WHERE o.id IS NULL`},
	}
	for _, o := range orphans {
		if err := db.SQL.QueryRowContext(ctx, o.query).Scan(o.dst); err != nil {
			return r, fmt.Errorf("orphan check: %w", err)
		}
	}

	return r, nil
}
