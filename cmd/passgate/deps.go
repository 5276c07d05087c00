// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/spf13/pflag"

	"github.com/passgate/passgate/internal/auth"
	"github.com/passgate/passgate/internal/config"
	"github.com/passgate/passgate/internal/httpapi"
	"github.com/passgate/passgate/internal/mail"
	"github.com/passgate/passgate/internal/observability"
	"github.com/passgate/passgate/internal/store"
)

// Server is a background listener started and stopped by serve.
type Server interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ObservabilityServer is the metrics and health listener.
type ObservabilityServer interface {
	Server
	Metrics() *observability.Metrics
}

// SchemaMigrator drives the account schema. *store.Migrator satisfies it.
type SchemaMigrator interface {
	Up() error
	Down() error
	Force(version int) error
	Status() (*store.Status, error)
	Close() error
}

// AccountBackend is an opened account store with its health and
// teardown hooks.
type AccountBackend struct {
	Store auth.AccountStore
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ConfigLoader builds the configuration.
	// Default: config.Load
	ConfigLoader func(path string, fs *pflag.FlagSet) (config.Config, error)

	// TracingSetup installs the global tracer provider.
	// Default: observability.SetupTracing
	TracingSetup func(ctx context.Context, cfg observability.TracingConfig) (observability.ShutdownFunc, error)

	// BackendOpener opens the configured account store.
	// Default: openBackend
	BackendOpener func(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*AccountBackend, error)

	// MailFactory creates the outbound mail transport.
	// Default: mail.NewTransport
	MailFactory func(cfg mail.Config, logger *slog.Logger) (auth.MailTransport, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, checker observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// APIServerFactory creates the HTTP API server.
	// Default: httpapi.NewServer
	APIServerFactory func(cfg httpapi.ServerConfig, handler http.Handler, logger *slog.Logger) Server
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.ConfigLoader == nil {
		out.ConfigLoader = config.Load
	}
	if out.TracingSetup == nil {
		out.TracingSetup = observability.SetupTracing
	}
	if out.BackendOpener == nil {
		out.BackendOpener = openBackend
	}
	if out.MailFactory == nil {
		out.MailFactory = mail.NewTransport
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, checker observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, checker, observability.WithServerLogger(logger))
		}
	}
	if out.APIServerFactory == nil {
		out.APIServerFactory = func(cfg httpapi.ServerConfig, handler http.Handler, logger *slog.Logger) Server {
			return httpapi.NewServer(cfg, handler, logger)
		}
	}
	return &out
}

// MigrateDeps contains injectable dependencies for the migrate commands.
type MigrateDeps struct {
	// ConfigLoader builds the configuration.
	// Default: config.Load
	ConfigLoader func(path string, fs *pflag.FlagSet) (config.Config, error)

	// MigratorFactory opens a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (SchemaMigrator, error)
}

func (d *MigrateDeps) withDefaults() *MigrateDeps {
	out := MigrateDeps{}
	if d != nil {
		out = *d
	}
	if out.ConfigLoader == nil {
		out.ConfigLoader = config.Load
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (SchemaMigrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	return &out
}
