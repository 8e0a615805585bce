// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session is an opaque, time-bounded blob owned by the session layer.
type Session struct {
	ID     ulid.ULID
	Data   []byte
	Expiry time.Time
}

// IsExpiredAt reports whether the session is no longer visible at t.
// A session expiring exactly at t is already expired.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.Expiry.After(t)
}

// NewSession is the creation input for a session.
type NewSession struct {
	Data   []byte
	Expiry time.Time
}

// SessionAdapter persists session blobs inside a caller-supplied transaction.
type SessionAdapter[Tx any] interface {
	// CreateSession stores the session under a fresh identifier.
	CreateSession(ctx context.Context, tx Tx, session NewSession) (*Session, error)

	// SaveSession overwrites data and expiry of an existing session.
	// Returns ErrNotFound if the identifier was never created.
	SaveSession(ctx context.Context, tx Tx, session Session) (*Session, error)

	// LoadSession returns nil, nil when the session is absent or expired.
	LoadSession(ctx context.Context, tx Tx, id ulid.ULID) (*Session, error)

	// DeleteSession removes the session. Deleting an unknown id is not an error.
	DeleteSession(ctx context.Context, tx Tx, id ulid.ULID) error

	// DeleteExpired removes every expired session and returns the count.
	DeleteExpired(ctx context.Context, tx Tx) (int64, error)
}
