// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the authplay CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	d := deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "authplay",
		Short: "authplay - user accounts and sessions on PostgreSQL",
		Long: `authplay stores user accounts with argon2id password hashes and
server-side login sessions in PostgreSQL.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file path (YAML, default: $XDG_CONFIG_HOME/authplay/config.yaml)")
	flags.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	flags.String("log-format", "json", "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(d))
	cmd.AddCommand(newMigrateCmd(d))
	cmd.AddCommand(newUserCmd(d))
	cmd.AddCommand(newSessionsCmd(d))
	cmd.AddCommand(newConfigCmd(d))

	return cmd
}
