// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/authplay/authplay/internal/auth"
)

// DefaultIDAttempts bounds how many identifiers CreateSession tries before
// giving up on a broken entropy source.
const DefaultIDAttempts = 5

var errIDCollision = errors.New("session id collision")

// CollisionRecorder counts session identifier collisions.
type CollisionRecorder interface {
	RecordSessionIDCollision()
}

type nopCollisions struct{}

func (nopCollisions) RecordSessionIDCollision() {}

// SessionOption configures a SessionAdapter.
type SessionOption func(*SessionAdapter)

// WithIDSource overrides the identifier source.
func WithIDSource(src auth.IDSource) SessionOption {
	return func(a *SessionAdapter) { a.ids = src }
}

// WithIDAttempts sets the maximum number of identifiers tried per create.
func WithIDAttempts(n int) SessionOption {
	return func(a *SessionAdapter) {
		if n > 0 {
			a.attempts = n
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(a *SessionAdapter) { a.now = now }
}

// WithCollisionRecorder sets the collision counter.
func WithCollisionRecorder(r CollisionRecorder) SessionOption {
	return func(a *SessionAdapter) { a.collisions = r }
}

// SessionAdapter implements auth.SessionAdapter using PostgreSQL.
// Identifier uniqueness is enforced by the primary key; CreateSession
// retries with a fresh identifier when the insert hits an existing row.
type SessionAdapter struct {
	ids        auth.IDSource
	attempts   int
	now        func() time.Time
	collisions CollisionRecorder
}

// NewSessionAdapter creates a SessionAdapter.
func NewSessionAdapter(opts ...SessionOption) *SessionAdapter {
	a := &SessionAdapter{
		ids:        auth.NewRandomIDSource(),
		attempts:   DefaultIDAttempts,
		now:        time.Now,
		collisions: nopCollisions{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreateSession inserts the session under a fresh identifier.
func (a *SessionAdapter) CreateSession(ctx context.Context, q Querier, session auth.NewSession) (*auth.Session, error) {
	data := nonNil(session.Data)
	var created *auth.Session
	backoff := retry.WithMaxRetries(uint64(a.attempts-1), retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := a.ids.NewID()
		if err != nil {
			return err
		}

		tag, err := q.Exec(ctx, `
			INSERT INTO sessions (id, data, expiry)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, id.String(), data, session.Expiry)
		if err != nil {
			return auth.NewDatabaseError("SESSION_CREATE_FAILED", "insert session", err)
		}
		if tag.RowsAffected() == 0 {
			a.collisions.RecordSessionIDCollision()
			return retry.RetryableError(errIDCollision)
		}

		created = &auth.Session{ID: id, Data: data, Expiry: session.Expiry}
		return nil
	})
	if errors.Is(err, errIDCollision) {
		return nil, oops.Code("SESSION_ID_EXHAUSTED").
			With("attempts", a.attempts).
			Wrapf(auth.ErrMessage, "no unique session id after %d attempts", a.attempts)
	}
	if isContextErr(err) && !errors.Is(err, auth.ErrDatabase) {
		return nil, auth.NewDatabaseError("SESSION_CREATE_FAILED", "insert session", err)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// SaveSession overwrites data and expiry of an existing session.
func (a *SessionAdapter) SaveSession(ctx context.Context, q Querier, session auth.Session) (*auth.Session, error) {
	tag, err := q.Exec(ctx, `
		UPDATE sessions SET data = $2, expiry = $3
		WHERE id = $1
	`, session.ID.String(), nonNil(session.Data), session.Expiry)
	if err != nil {
		return nil, auth.NewDatabaseError("SESSION_SAVE_FAILED", "update session", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, oops.Code("SESSION_NOT_FOUND").
			With("session_id", session.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	saved := session
	return &saved, nil
}

// LoadSession returns the session if it exists and expires after now.
func (a *SessionAdapter) LoadSession(ctx context.Context, q Querier, id ulid.ULID) (*auth.Session, error) {
	row := q.QueryRow(ctx, `
		SELECT id, data, expiry
		FROM sessions
		WHERE id = $1 AND expiry > $2
	`, id.String(), a.now())

	var (
		idStr  string
		data   []byte
		expiry time.Time
	)
	err := row.Scan(&idStr, &data, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, auth.NewDatabaseError("SESSION_LOAD_FAILED", "load session", err)
	}

	parsed, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("session_id", idStr).
			Wrapf(auth.ErrMessage, "parse session id: %v", err)
	}
	return &auth.Session{ID: parsed, Data: data, Expiry: expiry}, nil
}

// DeleteSession removes a session; an absent row is not an error.
func (a *SessionAdapter) DeleteSession(ctx context.Context, q Querier, id ulid.ULID) error {
	_, err := q.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id.String())
	if err != nil {
		return auth.NewDatabaseError("SESSION_DELETE_FAILED", "delete session", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is at or before now.
func (a *SessionAdapter) DeleteExpired(ctx context.Context, q Querier) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM sessions WHERE expiry <= $1`, a.now())
	if err != nil {
		return 0, auth.NewDatabaseError("SESSION_DELETE_EXPIRED_FAILED", "delete expired sessions", err)
	}
	return tag.RowsAffected(), nil
}

// nonNil maps a nil blob to an empty one for the NOT NULL data column.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// Compile-time interface check.
var _ auth.SessionAdapter[Querier] = (*SessionAdapter)(nil)
