// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import "errors"

// securityBackend exists only so NewManager compiles everywhere; the security
// command is macOS-only and NewManager skips it on other platforms.
type securityBackend struct{}

var errSecurityUnavailable = errors.New("the security command is only available on macOS")

func newSecurityBackend() (*securityBackend, error) { return nil, errSecurityUnavailable }

func (*securityBackend) Set(string, string) error   { return errSecurityUnavailable }
func (*securityBackend) Get(string) (string, error) { return "", errSecurityUnavailable }
func (*securityBackend) Delete(string) error        { return errSecurityUnavailable }
