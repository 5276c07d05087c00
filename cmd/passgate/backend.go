// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/passgate/passgate/internal/auth/memory"
	authmongo "github.com/passgate/passgate/internal/auth/mongo"
	"github.com/passgate/passgate/internal/auth/postgres"
	"github.com/passgate/passgate/internal/config"
	"github.com/passgate/passgate/internal/store"
)

func noopHook(context.Context) error { return nil }

// openBackend opens the account store selected by cfg.Driver.
func openBackend(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*AccountBackend, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		logger.Warn("using in-memory account store; accounts are lost on restart")
		return &AccountBackend{Store: memory.NewAccountStore(), Ping: noopHook, Close: noopHook}, nil
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	default:
		return nil, oops.Code("CONFIG_INVALID").With("key", "store.driver").Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*AccountBackend, error) {
	if cfg.AutoMigrate {
		if err := runAutoMigration(cfg.PostgresURL, logger, func(url string) (AutoMigrator, error) {
			return store.NewMigrator(url)
		}); err != nil {
			return nil, err
		}
	}

	pool, err := store.Connect(ctx, cfg.PostgresURL,
		store.WithConnectAttempts(cfg.ConnectAttempts),
		store.WithConnectLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &AccountBackend{
		Store: postgres.NewAccountRepository(pool),
		Ping:  pool.Ping,
		Close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

func openMongo(ctx context.Context, cfg config.StoreConfig) (*AccountBackend, error) {
	client, err := authmongo.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}

	repo, err := authmongo.NewAccountRepository(ctx, client.Database(cfg.MongoDatabase))
	if err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // index error takes precedence
		return nil, err
	}

	return &AccountBackend{
		Store: repo,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
	}, nil
}

// AutoMigrator is the subset of SchemaMigrator used at startup.
type AutoMigrator interface {
	Up() error
	Close() error
}

// runAutoMigration applies pending migrations before the pool opens.
func runAutoMigration(databaseURL string, logger *slog.Logger, factory func(string) (AutoMigrator, error)) error {
	logger.Info("running database migrations")

	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("database migrations complete")
	return nil
}
