/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/seckatie/linkindex/internal/config"
	"github.com/seckatie/linkindex/internal/core/db"
	"github.com/seckatie/linkindex/internal/core/db/postgres"
	"github.com/seckatie/linkindex/internal/core/index"
	"github.com/seckatie/linkindex/internal/logging"
)

func mustBind(key string, flags *pflag.FlagSet) {
	if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", key, err))
	}
}

// initDB opens and migrates the configured SQLite database.
func initDB() (*db.DB, error) {
	dbPath := config.Load(viper.GetViper()).DB
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logging.Default().Debug().Str("path", dbPath).Msg("Database migrated successfully")
	return database, nil
}

// indexStore is the store the index commands read and reconcile against.
type indexStore interface {
	index.Store
	index.Source
}

// openIndexStore opens PostgreSQL when a database URL is configured, otherwise
// the SQLite database.
func openIndexStore(ctx context.Context) (indexStore, func(), error) {
	cfg := config.Load(viper.GetViper())
	if cfg.DatabaseURL != "" {
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	database, err := initDB()
	if err != nil {
		return nil, nil, err
	}
	return database, func() {
		if err := database.Close(); err != nil {
			logging.Default().Warn().Err(err).Msg("failed to close database")
		}
	}, nil
}

// warnSQLiteOnly logs that command reads and writes the SQLite database even
// though a PostgreSQL URL is configured. Only update and list use PostgreSQL.
func warnSQLiteOnly(command string) {
	cfg := config.Load(viper.GetViper())
	if cfg.DatabaseURL == "" {
		return
	}
	logging.Default().Warn().
		Str("command", command).
		Str("db", cfg.DB).
		Msg("--database-url is ignored; this command uses the SQLite database")
}
