// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// LLMErrorType represents the category of a model provider error
type LLMErrorType int

const (
	LLMErrorUnknown LLMErrorType = iota
	LLMErrorAPIKey
	LLMErrorRateLimit
	LLMErrorTimeout
	LLMErrorNetwork
	LLMErrorUnavailable
)

// ParseLLMError categorizes a model provider error message
func ParseLLMError(errMsg string) LLMErrorType {
	lower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lower, "api key"), strings.Contains(lower, "api_key"),
		strings.Contains(lower, "permission_denied"), strings.Contains(lower, "unauthenticated"):
		return LLMErrorAPIKey
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "resource_exhausted"),
		strings.Contains(lower, "quota"), strings.Contains(lower, "429"):
		return LLMErrorRateLimit
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
		return LLMErrorTimeout
	case strings.Contains(lower, "connection reset"), strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"):
		return LLMErrorNetwork
	case strings.Contains(lower, "unavailable"), strings.Contains(lower, "503"):
		return LLMErrorUnavailable
	}

	return LLMErrorUnknown
}

// LLMErrorMessage returns the one-line, user-facing message for a provider error.
// Unknown errors keep their (masked) text.
func LLMErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	switch ParseLLMError(msg) {
	case LLMErrorAPIKey:
		return "API key is invalid or missing. Please check your configuration."
	case LLMErrorRateLimit:
		return "API rate limit exceeded. Please try again later."
	case LLMErrorTimeout:
		return "Request timed out. Please try again."
	case LLMErrorNetwork:
		return "Could not reach the model provider. Please check your network connection."
	case LLMErrorUnavailable:
		return "The model provider is temporarily unavailable. Please try again later."
	}
	return "LLM error: " + StripPaths(Mask(msg))
}

// FormatLLMError formats a provider error for the terminal with a hint on what to do next.
func FormatLLMError(err error) string {
	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Model Request Failed"))
	builder.WriteString("\n\n")
	builder.WriteString(LLMErrorMessage(err))
	builder.WriteString("\n\n")

	switch ParseLLMError(fmt.Sprint(err)) {
	case LLMErrorAPIKey:
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Set GOOGLE_API_KEY or run 'sqlagent apikey set'"))
	case LLMErrorRateLimit, LLMErrorTimeout, LLMErrorUnavailable:
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Wait a moment and ask again"))
	default:
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Run with --log-level debug for details"))
	}
	builder.WriteString("\n")

	return builder.String()
}

// PresentLLMError displays a formatted provider error
func PresentLLMError(err error) {
	fmt.Println()
	fmt.Println(FormatLLMError(err))
}
