// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlagent/cli/internal/backend"
)

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), Timeout},
		{"client timeout", errors.New("Client.Timeout exceeded while awaiting headers"), Timeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid"}, DNS},
		{"refused", fmt.Errorf("get: %w", refused), ConnectionRefused},
		{"x509", errors.New("x509: certificate signed by unknown authority"), TLS},
		{"server", &backend.StatusError{Status: 502, Message: "bad gateway"}, Server},
		{"other", errors.New("EOF"), Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestFormatNetworkErrorWraps(t *testing.T) {
	assert.NoError(t, FormatNetworkError(nil, "checking health", "localhost:5000"))

	cause := errors.New("EOF")
	err := FormatNetworkError(cause, "checking health", "localhost:5000")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestExtractHostFromURL(t *testing.T) {
	assert.Equal(t, "localhost:5000", ExtractHostFromURL("http://localhost:5000/api"))
	assert.Equal(t, "server", ExtractHostFromURL("::bad"))
}

func TestExplain(t *testing.T) {
	refused := fmt.Errorf("get: %w", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)})
	title, lines := Explain(refused, "checking health", "localhost:5000")
	assert.Equal(t, "🚫 Connection refused while checking health", title)
	assert.Contains(t, lines, "  sqlagent serve")

	title, lines = Explain(&backend.StatusError{Status: 404}, "reading database info", "localhost:5000")
	assert.Equal(t, "❌ Cannot reach the sqlagent server at localhost:5000 while reading database info", title)
	assert.Empty(t, lines)

	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 3))
}
