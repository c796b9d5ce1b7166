// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package guard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	qerr "sqlagent/cli/internal/errors"
)

// DefaultBlockedKeywords are the write/DDL keywords rejected anywhere in a query.
var DefaultBlockedKeywords = []string{"INSERT", "UPDATE", "DELETE", "DROP", "TRUNCATE", "ALTER", "CREATE", "REPLACE"}

var (
	reSelectStart = regexp.MustCompile(`(?is)^\s*select\b`)

	// dangerousPatterns are engine-agnostic injection shapes. Against SQLite some of
	// them (EXEC, sp_/xp_) can never match a working attack; they stay anyway.
	// Comments are rejected because an appended LIMIT would land inside them.
	dangerousPatterns = []struct {
		label string
		re    *regexp.Regexp
	}{
		{"UNION SELECT", regexp.MustCompile(`(?is)\bunion\b.*\bselect\b`)},
		{"EXEC", regexp.MustCompile(`(?i)\bexec\b`)},
		{"stored procedure (sp_)", regexp.MustCompile(`(?i)\bsp_\w*`)},
		{"extended procedure (xp_)", regexp.MustCompile(`(?i)\bxp_\w*`)},
		{"line comment (--)", regexp.MustCompile(`--`)},
		{"block comment (/*)", regexp.MustCompile(`/\*`)},
	}
)

// Verdict is the validator's decision: either valid, or rejected with a kind.
// The zero Verdict is valid.
type Verdict struct {
	Kind   qerr.Kind
	Reason string
}

// Reject builds a rejecting verdict.
func Reject(kind qerr.Kind, reason string) Verdict { return Verdict{Kind: kind, Reason: reason} }

// Valid reports whether the query may proceed to shaping.
func (v Verdict) Valid() bool { return v.Kind == "" }

// String returns "valid" or the rejection kind, for logs.
func (v Verdict) String() string {
	if v.Valid() {
		return "valid"
	}
	return string(v.Kind)
}

// Err returns the rejection as a *errors.E, or nil for a valid verdict.
func (v Verdict) Err() error {
	if v.Valid() {
		return nil
	}
	return qerr.New(v.Kind, v.Reason)
}

// Validator classifies normalized query text. It is immutable after construction.
type Validator struct {
	blocked   []string
	reBlocked *regexp.Regexp
}

// NewValidator compiles the blocklist into a single whole-word, case-insensitive
// matcher. A nil list selects DefaultBlockedKeywords.
func NewValidator(blocked []string) (*Validator, error) {
	if blocked == nil {
		blocked = DefaultBlockedKeywords
	}
	words := make([]string, 0, len(blocked))
	for _, kw := range blocked {
		kw = strings.ToUpper(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		words = append(words, regexp.QuoteMeta(kw))
	}
	if len(words) == 0 {
		return nil, errors.New("blocked keyword list is empty")
	}
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile blocked keywords: %w", err)
	}
	return &Validator{blocked: words, reBlocked: re}, nil
}

// Validate runs the checks in fixed order and stops at the first failure:
// blocklist, multiple statements, SELECT-only, dangerous patterns. The order
// decides which kind is reported for input that is invalid several ways.
func (v *Validator) Validate(q string) Verdict {
	if m := v.reBlocked.FindString(q); m != "" {
		return Reject(qerr.WriteOperation, fmt.Sprintf("write operations are not allowed (blocked: %s)", strings.ToUpper(m)))
	}

	if strings.Contains(q, ";") {
		return Reject(qerr.MultipleStatements, "multiple statements are not allowed")
	}

	if !reSelectStart.MatchString(q) {
		return Reject(qerr.NotASelect, "only SELECT statements are allowed")
	}

	for _, p := range dangerousPatterns {
		if p.re.MatchString(q) {
			return Reject(qerr.DangerousPattern, "potentially dangerous pattern detected: "+p.label)
		}
	}

	return Verdict{}
}

// IsSelect reports whether q starts with SELECT, ignoring case and leading whitespace.
func IsSelect(q string) bool { return reSelectStart.MatchString(q) }

// DangerousPatterns returns the labels of the injection shapes the validator rejects.
func DangerousPatterns() []string {
	out := make([]string, len(dangerousPatterns))
	for i, p := range dangerousPatterns {
		out[i] = p.label
	}
	return out
}
