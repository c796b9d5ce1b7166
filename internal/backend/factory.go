// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import "time"

// DefaultServerURL is where `sqlagent serve` listens by default.
const DefaultServerURL = "http://localhost:5000"

// New creates an API client for baseURL. A zero timeout uses 10s.
func New(baseURL string, timeout time.Duration) API {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return newHTTP(baseURL, timeout)
}
