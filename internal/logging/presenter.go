// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"strings"

	qerr "sqlagent/cli/internal/errors"
)

// PresentError renders err for the terminal. Query-pipeline errors already
// carry a caller-safe message and are shown as "ERROR: ..." without context;
// anything else is masked, stripped of paths and prefixed with context.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if qerr.KindOf(err) != "" {
		return qerr.Caller(err)
	}
	msg := StripPaths(Mask(strings.TrimSpace(err.Error())))
	if context == "" {
		return msg
	}
	return context + ": " + msg
}
