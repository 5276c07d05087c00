// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Passgate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passgate",
		Short: "Passgate - account registration and credential issuance",
		Long: `Passgate registers accounts, verifies passwords, and issues signed
session and password-reset tokens over a JSON HTTP API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}
