// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sqlagent/cli/internal/config"
	"sqlagent/cli/internal/database"
	"sqlagent/cli/internal/guard"
	"sqlagent/cli/internal/keychain"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/sqlexec"
)

// target is the database a command talks to.
type target struct {
	dsn    string
	source config.DSNSource
}

// masked returns the DSN with credentials hidden.
func (t target) masked() string { return logging.Mask(t.dsn) }

// resolveTarget applies --db, DATABASE_URL, the config file and the keychain.
func resolveTarget() target {
	var stored config.DSNLoader
	if km, err := keychain.GetManager(); err == nil {
		stored = km
	} else {
		current.log.Debug("keychain unavailable", zap.Error(err))
	}
	dsn, src := current.cfg.ResolveDSN(dbFlag, stored)
	return target{dsn: dsn, source: src}
}

// openDatabase opens the pool for t sized from the configuration.
func openDatabase(ctx context.Context, t target) (*database.DB, error) {
	db, err := database.Open(ctx, t.dsn, current.cfg.Database.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", t.masked(), err)
	}
	current.log.Debug("database opened",
		zap.String("dsn", t.masked()),
		zap.String("source", string(t.source)),
		zap.String("engine", string(db.Type)))
	return db, nil
}

// newExecutor builds the guard and executor over db from the configuration.
func newExecutor(db *database.DB) (*sqlexec.Executor, error) {
	cfg := current.cfg
	g, err := guard.New(cfg.Security.BlockedKeywords, cfg.Security.MaxRowLimit)
	if err != nil {
		return nil, err
	}
	return sqlexec.New(db, g, sqlexec.Options{
		PoolSize:       cfg.Database.PoolSize,
		AcquireTimeout: cfg.AcquireTimeout(),
		QueryTimeout:   cfg.QueryTimeout(),
		QueryLogging:   cfg.Security.QueryLoggingEnabled,
	}, current.log), nil
}

// openExecutor resolves, opens and wraps the database. The returned close
// function releases the pool.
func openExecutor(ctx context.Context) (*sqlexec.Executor, target, func(), error) {
	t := resolveTarget()
	db, err := openDatabase(ctx, t)
	if err != nil {
		return nil, t, nil, err
	}
	exec, err := newExecutor(db)
	if err != nil {
		_ = db.Close()
		return nil, t, nil, err
	}
	return exec, t, func() { _ = db.Close() }, nil
}
