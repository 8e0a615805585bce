// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package sessionstore

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/authplay/authplay/internal/auth"
)

// Credentials is a login attempt.
type Credentials struct {
	Email    string
	Password string
}

// Backend is the authentication backend used by the request layer to
// establish and verify a logged-in identity.
type Backend struct {
	api auth.API
}

// NewBackend creates a Backend over api.
func NewBackend(api auth.API) *Backend {
	return &Backend{api: api}
}

// Authenticate returns the user for valid credentials and nil for rejected
// ones. It never says why credentials were rejected. A storage outage is
// an error, not a rejection.
func (b *Backend) Authenticate(ctx context.Context, creds Credentials) (*auth.UserInfo, error) {
	user, err := b.api.Authenticate(ctx, creds.Email, creds.Password)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, auth.ErrAuthenticationUnavailable),
		errors.Is(err, auth.ErrDatabase),
		errors.Is(err, auth.ErrMessage):
		return nil, oops.Code("AUTH_BACKEND_UNAVAILABLE").Errorf("authentication backend unavailable")
	default:
		return nil, nil
	}
}

// GetUser returns the user with the given id, or nil when it no longer exists.
func (b *Backend) GetUser(ctx context.Context, id int64) (*auth.UserInfo, error) {
	user, err := b.api.GetUser(ctx, id)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("AUTH_BACKEND_GET_USER_FAILED").With("user_id", id).Wrap(err)
	}
	return user, nil
}
