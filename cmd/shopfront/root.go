// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the shopfront CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopfront",
		Short: "Shopfront - storefront API server",
		Long: `Shopfront serves the account, catalogue and cart API of a small
online shop, backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("shopfront %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
