// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// User is a persisted user account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}

// Info returns the read projection of the user.
func (u *User) Info() *UserInfo {
	return &UserInfo{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
}

// NewUser is the registration input. Password is cleartext.
type NewUser struct {
	Name     string
	Email    string
	Password string
}

// String formats the user without the password.
func (u NewUser) String() string {
	return fmt.Sprintf("{Name:%s Email:%s Password:[REDACTED]}", u.Name, u.Email)
}

// GoString formats the user for %#v without the password.
func (u NewUser) GoString() string {
	return fmt.Sprintf("auth.NewUser{Name:%q, Email:%q, Password:\"[REDACTED]\"}", u.Name, u.Email)
}

// LogValue implements slog.LogValuer so the password never reaches a log.
func (u NewUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", u.Name),
		slog.String("email", u.Email),
	)
}

// UserInfo is the projection of a User returned to authentication callers.
type UserInfo struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}

// SessionAuthHash returns the bytes a session layer binds a login to.
// Changing the password changes the hash and invalidates existing logins.
func (u *UserInfo) SessionAuthHash() []byte {
	return []byte(u.PasswordHash)
}

// UserAdapter persists and retrieves users inside a caller-supplied transaction.
type UserAdapter[Tx any] interface {
	// AddUser hashes the password and inserts the user. A duplicate email is
	// reported as a generic database error.
	AddUser(ctx context.Context, tx Tx, user NewUser) (*User, error)

	// GetUser looks a user up by exact email. Returns ErrNotFound if absent.
	GetUser(ctx context.Context, tx Tx, email string) (*User, error)

	// GetUserByID looks a user up by primary key. Returns ErrNotFound if absent.
	GetUserByID(ctx context.Context, tx Tx, id int64) (*User, error)

	// AuthenticateUser returns ErrNotFound for an unknown email and
	// ErrInvalidPassword when the password does not match.
	AuthenticateUser(ctx context.Context, tx Tx, email, password string) (*User, error)
}
