// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/passgate/passgate/internal/config"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and check configuration files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(schema))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Check a config file against the schema and startup rules",
		Long: `Validate FILE against the config schema, then load it with the current
environment applied and report the first setting that would stop serve.`,
		Args: cobra.ExactArgs(1),
		RunE: runConfigValidate,
	})

	return cmd
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path) //nolint:gosec // path is an operator-supplied argument
	if err != nil {
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	if err := config.ValidateYAML(data); err != nil {
		return oops.With("path", path).Wrap(err)
	}

	cfg, err := config.Load(path, nil)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return oops.With("path", path).Wrap(err)
	}

	cmd.Printf("%s is valid\n", path)
	return nil
}
