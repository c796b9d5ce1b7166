// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package report answers natural-language business questions with fixed,
// parameterized report queries over the demo commerce schema.
//
// A prompt is classified by keyword into one report kind, an optional month/year
// period is extracted, and the matching report runs through the executor's trusted
// template path. Period values are always bound as arguments, never spliced into SQL.
package report

import "strings"

// Kind names a report.
type Kind string

const (
	KindTimeBased Kind = "time_based"
	KindCustomers Kind = "customers"
	KindSales     Kind = "sales"
	KindProducts  Kind = "products"
	KindOrders    Kind = "orders"
	KindAnalytics Kind = "analytics"
)

// rules are checked in order; the first kind with a matching keyword wins.
var rules = []struct {
	kind  Kind
	words []string
}{
	{KindTimeBased, []string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
		"2024", "2025", "month", "year", "date", "when", "purchased in", "bought in",
	}},
	{KindCustomers, []string{"customer", "user", "client", "demographic", "region", "purchased", "bought", "how many customers"}},
	{KindSales, []string{"sales", "revenue", "profit", "income", "earnings", "total"}},
	{KindProducts, []string{"product", "item", "inventory", "stock", "category", "selling", "best selling"}},
	{KindOrders, []string{"order", "purchase", "transaction", "payment"}},
	{KindAnalytics, []string{"analytics", "data", "statistics", "report", "summary", "overview"}},
}

// Classify maps a prompt to a report kind. Keywords match as case-insensitive
// substrings; a prompt matching nothing gets KindAnalytics.
func Classify(prompt string) Kind {
	p := strings.ToLower(prompt)
	for _, r := range rules {
		if containsAny(p, r.words...) {
			return r.kind
		}
	}
	return KindAnalytics
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
