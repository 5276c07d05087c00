// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

// Package store manages the PostgreSQL connection and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry defaults.
const (
	DefaultConnectAttempts = 5
	DefaultConnectBackoff  = 500 * time.Millisecond
	maxConnectBackoff      = 5 * time.Second
)

type connectConfig struct {
	attempts uint64
	backoff  time.Duration
	logger   *slog.Logger
}

// ConnectOption configures Connect.
type ConnectOption func(*connectConfig)

// WithConnectAttempts sets how many times Connect pings before giving up.
func WithConnectAttempts(n uint64) ConnectOption {
	return func(c *connectConfig) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithConnectBackoff sets the initial delay between attempts. The delay
// doubles per attempt up to five seconds.
func WithConnectBackoff(d time.Duration) ConnectOption {
	return func(c *connectConfig) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithConnectLogger sets the logger used to report failed attempts.
func WithConnectLogger(logger *slog.Logger) ConnectOption {
	return func(c *connectConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Connect opens a pool for dsn and waits until the server answers a ping.
func Connect(ctx context.Context, dsn string, opts ...ConnectOption) (*pgxpool.Pool, error) {
	cfg := connectConfig{
		attempts: DefaultConnectAttempts,
		backoff:  DefaultConnectBackoff,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_INVALID_DSN").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(cfg.attempts-1,
		retry.WithCappedDuration(maxConnectBackoff, retry.NewExponential(cfg.backoff)))

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			cfg.logger.WarnContext(ctx, "database not ready",
				"attempt", attempt,
				"host", poolCfg.ConnConfig.Host,
				"error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping").
			With("attempts", attempt).
			Wrap(err)
	}
	return pool, nil
}
