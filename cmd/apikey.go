// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sqlagent/cli/internal/keychain"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the Gemini API key in the OS keychain",
	Long: `Store or remove the Gemini API key used by 'sqlagent ask'. The GOOGLE_API_KEY
environment variable, when set, takes precedence over the stored key.`,
}

var apikeySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Prompt for the API key and store it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			pterm.Println("❌ Secure storage is not available on this system.")
			return err
		}
		key, err := readSecret("Gemini API key: ")
		if err != nil {
			return err
		}
		if err := km.SaveAPIKey(key); err != nil {
			return err
		}
		pterm.Success.Println("API key saved.")
		return nil
	},
}

var apikeyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if err := km.ClearAPIKey(); err != nil {
			return err
		}
		pterm.Success.Println("API key removed.")
		return nil
	},
}

// readSecret reads one line without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print(prompt)
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		if err != nil {
			return "", err
		}
		return "", errors.New("no API key given")
	}
	return line, nil
}

func init() {
	apikeyCmd.AddCommand(apikeySetCmd, apikeyClearCmd)
	rootCmd.AddCommand(apikeyCmd)
}
