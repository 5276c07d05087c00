// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/passgate/passgate/internal/config"
	"github.com/passgate/passgate/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its children.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(nil)
}

func newMigrateCmd(deps *MigrateDeps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL account schema",
		Long: `Apply, roll back or inspect the account schema. The database URL is
store.postgres_url from the config file or PASSGATE_STORE__POSTGRES_URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m SchemaMigrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m SchemaMigrator) error {
				cmd.Println("Rolling back migrations...")
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Rollback completed successfully")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m SchemaMigrator) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				printStatus(cmd, st)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Long:  `Record VERSION as the current schema version and clear the dirty flag. Use after fixing a failed migration by hand.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, deps, func(m SchemaMigrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced schema version to %d\n", version)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator loads the database URL, opens a migrator and runs fn.
func withMigrator(cmd *cobra.Command, deps *MigrateDeps, fn func(SchemaMigrator) error) (err error) {
	path, err := config.ResolvePath(configFile)
	if err != nil {
		return err
	}
	cfg, err := deps.ConfigLoader(path, nil)
	if err != nil {
		return err
	}
	if cfg.Store.PostgresURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "store.postgres_url").
			Errorf("store.postgres_url is required for migrations")
	}

	cmd.Println("Connecting to database...")
	m, err := deps.MigratorFactory(cfg.Store.PostgresURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(m)
}

func printStatus(cmd *cobra.Command, st *store.Status) {
	cmd.Printf("Current version: %d\n", st.Version)
	if st.Dirty {
		cmd.Println("WARNING: database is dirty; fix the failed migration and run 'passgate migrate force'")
	}
	for _, v := range st.Applied {
		cmd.Printf("  [applied] %s\n", migrationLabel(v))
	}
	for _, v := range st.Pending {
		cmd.Printf("  [pending] %s\n", migrationLabel(v))
	}
}

func migrationLabel(version uint) string {
	name, err := store.MigrationName(version)
	if err != nil || name == "" {
		return strconv.FormatUint(uint64(version), 10)
	}
	return name
}

// parseForceVersion parses a non-negative schema version.
func parseForceVersion(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be non-negative, got %d", v)
	}
	return v, nil
}
