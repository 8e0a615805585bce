// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/authplay/authplay/internal/auth"
)

// dummyPasswordHash is verified when the email is unknown so the response
// time does not reveal whether the account exists. It never matches.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// UserAdapter implements auth.UserAdapter using PostgreSQL.
type UserAdapter struct {
	hasher auth.PasswordHasher
}

// NewUserAdapter creates a UserAdapter that hashes passwords with hasher.
func NewUserAdapter(hasher auth.PasswordHasher) *UserAdapter {
	return &UserAdapter{hasher: hasher}
}

// AddUser hashes the password and inserts the user. A duplicate email is a
// generic database error; the unique_violation context flag records why.
func (a *UserAdapter) AddUser(ctx context.Context, q Querier, user auth.NewUser) (*auth.User, error) {
	hash, err := a.hasher.Hash(user.Password)
	if err != nil {
		return nil, oops.Code("USER_HASH_FAILED").
			With("step", "hash password").
			With("email", user.Email).
			Wrap(err)
	}

	var id int64
	err = q.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`, user.Name, user.Email, hash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		unique := errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
		return nil, oops.Code("USER_CREATE_FAILED").
			With("step", "insert user").
			With("email", user.Email).
			With("unique_violation", unique).
			Wrap(&auth.DatabaseError{Op: "insert user", Err: err})
	}

	return &auth.User{
		ID:           id,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: hash,
	}, nil
}

// GetUser retrieves a user by exact email.
func (a *UserAdapter) GetUser(ctx context.Context, q Querier, email string) (*auth.User, error) {
	row := q.QueryRow(ctx, `
		SELECT id, name, email, password_hash
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, auth.NewDatabaseError("USER_GET_BY_EMAIL_FAILED", "get user by email", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by primary key.
func (a *UserAdapter) GetUserByID(ctx context.Context, q Querier, id int64) (*auth.User, error) {
	row := q.QueryRow(ctx, `
		SELECT id, name, email, password_hash
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, auth.NewDatabaseError("USER_GET_BY_ID_FAILED", "get user by id", err)
	}
	return user, nil
}

// AuthenticateUser checks the password of the user with the given email.
// A stored hash that cannot be parsed is rejected as ErrInvalidPassword.
func (a *UserAdapter) AuthenticateUser(ctx context.Context, q Querier, email, password string) (*auth.User, error) {
	user, err := a.GetUser(ctx, q, email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			_, _ = a.hasher.Verify(password, dummyPasswordHash) //nolint:errcheck // timing only
		}
		return nil, err
	}

	valid, err := a.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("USER_INVALID_HASH").
			With("user_id", user.ID).
			Wrapf(auth.ErrInvalidPassword, "stored hash rejected: %v", err)
	}
	if !valid {
		return nil, oops.Code("USER_INVALID_PASSWORD").
			With("user_id", user.ID).
			Wrap(auth.ErrInvalidPassword)
	}
	return user, nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return &u, nil
}

// Compile-time interface check.
var _ auth.UserAdapter[Querier] = (*UserAdapter)(nil)
