// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newMigrateCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.withMigrator(cmd, func(m Migrator) error {
				pending, err := m.Pending()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("Schema is up to date")
					return nil
				}
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Printf("Applied %d migration(s)\n", len(pending))
				return nil
			})
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		Long: `Roll back applied migrations. Without --steps every migration is
rolled back, which drops all users and sessions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := cmd.Flags().GetInt("steps")
			if err != nil {
				return oops.Wrap(err)
			}
			return d.withMigrator(cmd, func(m Migrator) error {
				if steps > 0 {
					if err := m.Steps(-steps); err != nil {
						return err
					}
					cmd.Printf("Rolled back %d migration(s)\n", steps)
					return nil
				}
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Rolled back all migrations")
				return nil
			})
		},
	}
	down.Flags().Int("steps", 0, "number of migrations to roll back (0 means all)")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.withMigrator(cmd, func(m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				pending, err := m.Pending()
				if err != nil {
					return err
				}
				cmd.Printf("version: %d\n", v)
				cmd.Printf("dirty: %t\n", dirty)
				cmd.Printf("pending: %d\n", len(pending))
				return nil
			})
		},
	})

	return cmd
}

func (d *Deps) withMigrator(cmd *cobra.Command, fn func(Migrator) error) error {
	cfg, err := d.loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := d.MigratorFactory(cfg.Database.URL)
	if err != nil {
		return oops.With("operation", "open migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			newLogger(cmd, cfg).Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := fn(m); err != nil {
		return oops.With("operation", cmd.CommandPath()).Wrap(err)
	}
	return nil
}
