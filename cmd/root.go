// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for sqlagent.
// It implements subcommands for guarded querying, the language model agent, the
// HTTP and gRPC servers, and demo data setup using the Cobra CLI framework. The
// package handles flag parsing and configuration loading, and provides a terminal
// UI with spinners, tables and boxes.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sqlagent/cli/internal/config"
	"sqlagent/cli/internal/logging"
)

var (
	showVersion bool
	cfgFile     string
	dbFlag      string
	verbose     bool
	logLevel    string
)

// errReported marks a failure that has already been shown to the user.
var errReported = errors.New("already reported")

// session is the per-invocation state built by PersistentPreRunE.
type session struct {
	cfg *config.Config
	log *zap.Logger
}

var current = &session{log: zap.NewNop()}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sqlagent",
	Short: "Guarded SQL access for people and language models",
	Long: `sqlagent runs read-only SQL against a SQLite or PostgreSQL database through a
guard that accepts exactly one SELECT statement, blocks write and DDL keywords, and
caps the result size. The same guard backs the interactive shell, the Gemini
agent, the HTTP API and the gRPC tool server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		if verbose {
			level = "debug"
		}
		log, err := logging.NewLogger(level, cfg.Log.Format)
		if err != nil {
			return err
		}
		current = &session{cfg: cfg, log: log}
		log.Debug("configuration loaded", zap.String("file", cfg.File))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd.OutOrStdout())
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	err := rootCmd.Execute()
	_ = current.log.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, logging.PresentError("error", err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/sqlagent/config.yaml)")
	pf.StringVar(&dbFlag, "db", "", "database DSN (sqlite://path.db or postgres://...)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}
