// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package fixture creates and loads the demo commerce database the agent answers
// questions about: customers, products, orders, order items, payments and refunds.
//
// The DDL uses only types both SQLite and PostgreSQL accept, so the same fixture
// serves the default SQLite file and a PostgreSQL database given by DSN. Sample
// rows are generated deterministically: the same Options always produce the same
// data, which is what the tests and the classroom demos rely on.
package fixture

// Tables lists the fixture tables in dependency order (parents first).
var Tables = []string{"customers", "products", "orders", "order_items", "payments", "refunds"}

var ddl = map[string]string{
	"customers": `CREATE TABLE IF NOT EXISTS customers (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	region TEXT NOT NULL
)`,
	"products": `CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	price_cents INTEGER NOT NULL
)`,
	"orders": `CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY,
	customer_id INTEGER REFERENCES customers (id),
	order_date TEXT NOT NULL,
	status TEXT NOT NULL,
	total_cents INTEGER
)`,
	"order_items": `CREATE TABLE IF NOT EXISTS order_items (
	id INTEGER PRIMARY KEY,
	order_id INTEGER REFERENCES orders (id),
	product_id INTEGER REFERENCES products (id),
	quantity INTEGER NOT NULL,
	unit_price_cents INTEGER NOT NULL
)`,
	"payments": `CREATE TABLE IF NOT EXISTS payments (
	id INTEGER PRIMARY KEY,
	order_id INTEGER REFERENCES orders (id),
	amount_cents INTEGER NOT NULL,
	payment_method TEXT NOT NULL,
	status TEXT NOT NULL
)`,
	"refunds": `CREATE TABLE IF NOT EXISTS refunds (
	id INTEGER PRIMARY KEY,
	order_id INTEGER REFERENCES orders (id),
	amount_cents INTEGER NOT NULL,
	reason TEXT,
	status TEXT NOT NULL
)`,
}

// columns lists insert columns per table, matching the row tuples in data.go.
var columns = map[string][]string{
	"customers":   {"id", "name", "email", "region"},
	"products":    {"id", "name", "category", "price_cents"},
	"orders":      {"id", "customer_id", "order_date", "status", "total_cents"},
	"order_items": {"id", "order_id", "product_id", "quantity", "unit_price_cents"},
	"payments":    {"id", "order_id", "amount_cents", "payment_method", "status"},
	"refunds":     {"id", "order_id", "amount_cents", "reason", "status"},
}
