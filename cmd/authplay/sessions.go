// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package main

import (
	"github.com/spf13/cobra"
)

func newSessionsCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete all expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := d.open(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.service.PurgeExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %d expired session(s)\n", n)
			return nil
		},
	})

	return cmd
}
