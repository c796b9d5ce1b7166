// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns transport failures of the sqlagent API client into
// short troubleshooting screens.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
)

// Category names the failure class detected by Classify.
type Category string

const (
	Timeout           Category = "timeout"
	DNS               Category = "dns"
	ConnectionRefused Category = "connection_refused"
	TLS               Category = "tls"
	Server            Category = "server"
	Other             Category = "other"
)

// maxDetail bounds the raw error text shown under the generic screen.
const maxDetail = 100

// statusCoder is satisfied by client errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// FormatNetworkError prints a troubleshooting screen for err, reached while
// doing action against host, and returns err wrapped for logging.
func FormatNetworkError(err error, action, host string) error {
	if err == nil {
		return nil
	}
	title, lines := Explain(err, action, host)
	pterm.Println(title)
	pterm.Println()
	for _, l := range lines {
		pterm.Println(l)
	}
	pterm.Println()
	if Classify(err) == Other {
		pterm.Debug.Printf("Technical details: %s\n", truncate(err.Error(), maxDetail))
	}
	return fmt.Errorf("network error: %w", err)
}

// Explain returns the headline and advice for err.
func Explain(err error, action, host string) (string, []string) {
	switch Classify(err) {
	case Timeout:
		return "⏱️  Connection timeout while " + action, []string{
			"The server took too long to respond. Its database pool may be saturated",
			"by long queries, or a firewall may be dropping the connection.",
			"Try again, or raise --timeout.",
		}
	case DNS:
		return "🌐 Cannot resolve server address while " + action, []string{
			"Unable to look up " + host + ". Check the --server URL and your DNS settings.",
		}
	case ConnectionRefused:
		return "🚫 Connection refused while " + action, []string{
			"Nothing is listening on " + host + ". Start it with:",
			"  sqlagent serve",
		}
	case TLS:
		return "🔒 Secure connection failed while " + action, []string{
			"Check the certificate, any proxy in between, and your system clock.",
			"`sqlagent serve` speaks plain HTTP; use an http:// URL unless a TLS proxy fronts it.",
		}
	case Server:
		return "⚠️  Server error while " + action, []string{
			"The server answered but failed internally. Its log has the details;",
			"run it with --verbose for query-level lines.",
		}
	}
	return fmt.Sprintf("❌ Cannot reach the sqlagent server at %s while %s", host, action), nil
}

// Classify reports which failure class err belongs to.
func Classify(err error) Category {
	if err == nil {
		return Other
	}
	var (
		netErr net.Error
		dnsErr *net.DNSError
		coded  statusCoder
	)
	msg := strings.ToLower(err.Error())

	switch {
	case errors.As(err, &coded):
		if coded.StatusCode() >= 500 {
			return Server
		}
		return Other
	case errors.As(err, &dnsErr):
		return DNS
	case errors.As(err, &netErr) && netErr.Timeout(),
		containsAny(msg, "timeout", "deadline exceeded"):
		return Timeout
	case errors.Is(err, syscall.ECONNREFUSED), strings.Contains(msg, "connection refused"):
		return ConnectionRefused
	case containsAny(msg, "tls:", "x509", "certificate", "handshake"):
		return TLS
	case containsAny(msg, "internal server error", "bad gateway", "service unavailable"):
		return Server
	}
	return Other
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ExtractHostFromURL extracts host:port from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
