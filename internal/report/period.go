// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package report

import (
	"fmt"
	"strings"
)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var knownYears = []string{"2024", "2025"}

// Period is an optional month and year filter. Zero fields mean unrestricted.
type Period struct {
	// Year is four digits, e.g. "2024"
	Year string
	// Month is two digits, e.g. "01"
	Month string
	name  string
}

// ExtractPeriod finds the first month name and the first known year in prompt.
func ExtractPeriod(prompt string) Period {
	p := strings.ToLower(prompt)
	var out Period
	for i, m := range monthNames {
		if strings.Contains(p, m) {
			out.Month = fmt.Sprintf("%02d", i+1)
			out.name = strings.ToUpper(m[:1]) + m[1:]
			break
		}
	}
	for _, y := range knownYears {
		if strings.Contains(p, y) {
			out.Year = y
			break
		}
	}
	return out
}

// IsZero reports whether no period was found.
func (p Period) IsZero() bool { return p.Year == "" && p.Month == "" }

// Label renders the period for report text.
func (p Period) Label() string {
	switch {
	case p.Year != "" && p.Month != "":
		return p.name + " " + p.Year
	case p.Year != "":
		return p.Year
	case p.Month != "":
		return p.name
	}
	return "all time"
}

// Filter returns an AND clause restricting a 'YYYY-MM-DD' text column to the
// period, with its bound arguments. ph renders the placeholder for argument n,
// starting at first.
func (p Period) Filter(column string, ph func(int) string, first int) (string, []any) {
	switch {
	case p.Year != "" && p.Month != "":
		return fmt.Sprintf(" AND substr(%s, 1, 7) = %s", column, ph(first)), []any{p.Year + "-" + p.Month}
	case p.Year != "":
		return fmt.Sprintf(" AND substr(%s, 1, 4) = %s", column, ph(first)), []any{p.Year}
	case p.Month != "":
		return fmt.Sprintf(" AND substr(%s, 6, 2) = %s", column, ph(first)), []any{p.Month}
	}
	return "", nil
}
