// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/authplay/authplay/internal/auth"
)

func newUserCmd(d *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Register a user (password is read from the terminal or stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")   //nolint:errcheck // flag is registered below
			email, _ := cmd.Flags().GetString("email") //nolint:errcheck // flag is registered below

			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			rt, err := d.open(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.service.Register(cmd.Context(), auth.NewUser{Name: name, Email: email, Password: password})
			if err != nil {
				if isUniqueViolation(err) {
					return oops.Code("USER_EMAIL_TAKEN").With("email", email).Errorf("email %q is already registered", email)
				}
				return err
			}
			cmd.Printf("Created user %d <%s>\n", user.ID, user.Email)
			return nil
		},
	}
	add.Flags().String("name", "", "display name")
	add.Flags().String("email", "", "login email (unique)")
	_ = add.MarkFlagRequired("name")  //nolint:errcheck // flag exists
	_ = add.MarkFlagRequired("email") //nolint:errcheck // flag exists
	cmd.AddCommand(add)

	check := &cobra.Command{
		Use:   "check",
		Short: "Verify a user's credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email") //nolint:errcheck // flag is registered below

			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			rt, err := d.open(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.service.Authenticate(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			cmd.Printf("OK: user %d %s <%s>\n", user.ID, user.Name, user.Email)
			return nil
		},
	}
	check.Flags().String("email", "", "login email")
	_ = check.MarkFlagRequired("email") //nolint:errcheck // flag exists
	cmd.AddCommand(check)

	return cmd
}

func isUniqueViolation(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	unique, _ := oopsErr.Context()["unique_violation"].(bool)
	return unique
}

// readPassword prompts without echo when stdin is a terminal and otherwise
// reads one line, so passwords can be piped in.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		cmd.PrintErr(prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.PrintErrln()
		if err != nil {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrapf(err, "no password on stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
