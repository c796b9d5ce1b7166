// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package guard

import "strings"

// Normalize trims surrounding whitespace and strips at most one trailing ';'.
// Internal whitespace, case and embedded semicolons are left alone, so a second
// statement is still visible to the validator.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}
