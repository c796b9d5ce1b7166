// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build darwin

package keychain

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// itemNotFoundExit is the exit status of security(1) for errSecItemNotFound.
const itemNotFoundExit = 44

// securityBackend stores secrets as generic passwords through the security
// command. Entries use ServiceName as the account and the key as the service.
type securityBackend struct {
	path string
}

func newSecurityBackend() (*securityBackend, error) {
	path, err := exec.LookPath("security")
	if err != nil {
		return nil, fmt.Errorf("security command not found: %w", err)
	}
	return &securityBackend{path: path}, nil
}

// run executes one security subcommand against key and returns its stdout.
func (s *securityBackend) run(sub, key string, extra ...string) (string, error) {
	args := append([]string{sub, "-a", ServiceName, "-s", key}, extra...)
	cmd := exec.Command(s.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	if err == nil {
		return strings.TrimSpace(stdout.String()), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == itemNotFoundExit ||
		strings.Contains(stderr.String(), "could not be found") {
		return "", ErrNotFound
	}
	return "", fmt.Errorf("keychain %s %q: %s: %w", sub, key, strings.TrimSpace(stderr.String()), err)
}

func (s *securityBackend) Set(key, value string) error {
	// -U replaces an existing item in place.
	_, err := s.run("add-generic-password", key, "-U", "-w", value)
	return err
}

func (s *securityBackend) Get(key string) (string, error) {
	return s.run("find-generic-password", key, "-w")
}

func (s *securityBackend) Delete(key string) error {
	_, err := s.run("delete-generic-password", key)
	return err
}
