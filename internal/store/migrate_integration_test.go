// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/passgate/passgate/internal/store"
)

func TestMigrator_FullCycle(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("passgate_test"),
		postgres.WithUsername("passgate"),
		postgres.WithPassword("passgate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := store.Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := store.NewMigrator(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = migrator.Close() })

	st, err := migrator.Status()
	require.NoError(t, err)
	assert.Zero(t, st.Version)
	assert.Equal(t, []uint{1, 2}, st.Pending)

	require.NoError(t, migrator.Up())
	st, err = migrator.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(2), st.Version)
	assert.False(t, st.Dirty)
	assert.Empty(t, st.Pending)

	_, err = pool.Exec(ctx, `INSERT INTO accounts (id, display_name, email, password_hash) VALUES ('a', 'A', 'Mixed@Case.com', 'h')`)
	require.Error(t, err, "normalized-email constraint should reject mixed case")

	require.NoError(t, migrator.Steps(-1))
	version, _, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, migrator.Down())
	version, _, err = migrator.Version()
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Force(1))
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
