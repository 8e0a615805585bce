// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/authplay/authplay/internal/errutil"
)

const tracerName = "github.com/authplay/authplay/internal/auth"

// API is the domain operation set consumed by the session-store bridge and
// the authentication backend.
type API interface {
	Register(ctx context.Context, user NewUser) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*UserInfo, error)
	GetUser(ctx context.Context, id int64) (*UserInfo, error)

	CreateSession(ctx context.Context, session NewSession) (*Session, error)
	SaveSession(ctx context.Context, session Session) error
	LoadSession(ctx context.Context, id ulid.ULID) (*Session, error)
	DeleteSession(ctx context.Context, id ulid.ULID) error
}

// MetricsRecorder observes the outcome of service operations.
type MetricsRecorder interface {
	ObserveOperation(operation string, kind ErrorKind, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, ErrorKind, time.Duration) {}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the operation metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer sets the tracer. Defaults to the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// Service orchestrates the user and session adapters. Each public method
// runs in exactly one transaction. Safe for concurrent use.
type Service[Tx any] struct {
	tm       Transactor[Tx]
	users    UserAdapter[Tx]
	sessions SessionAdapter[Tx]
	logger   *slog.Logger
	metrics  MetricsRecorder
	tracer   trace.Tracer
}

// NewService creates a Service. All three dependencies are required.
func NewService[Tx any](tm Transactor[Tx], users UserAdapter[Tx], sessions SessionAdapter[Tx], opts ...Option) (*Service[Tx], error) {
	if tm == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("transactor is required")
	}
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("user adapter is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("session adapter is required")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = nopMetrics{}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	return &Service[Tx]{
		tm:       tm,
		users:    users,
		sessions: sessions,
		logger:   o.logger,
		metrics:  o.metrics,
		tracer:   o.tracer,
	}, nil
}

// Register creates a user account.
func (s *Service[Tx]) Register(ctx context.Context, user NewUser) (_ *User, err error) {
	ctx, done := s.observe(ctx, "Register", attribute.String("email", user.Email))
	defer func() { done(err) }()

	created, err := Transact(ctx, s.tm, func(ctx context.Context, tx Tx) (*User, error) {
		return s.users.AddUser(ctx, tx, user)
	})
	if err != nil {
		return nil, oops.With("operation", "register").With("email", user.Email).Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID, "user", user)
	return created, nil
}

// Authenticate verifies credentials. Every failure, whether unknown email,
// wrong password or storage error, is returned as ErrAuthenticationFailed
// with the same message. Storage and hashing faults are additionally
// marked ErrAuthenticationUnavailable. The underlying kind is only logged.
func (s *Service[Tx]) Authenticate(ctx context.Context, email, password string) (_ *UserInfo, err error) {
	ctx, done := s.observe(ctx, "Authenticate")
	defer func() { done(err) }()

	user, err := Transact(ctx, s.tm, func(ctx context.Context, tx Tx) (*User, error) {
		return s.users.AuthenticateUser(ctx, tx, email, password)
	})
	if err != nil {
		kind := KindOf(err)
		level, failure := slog.LevelInfo, ErrAuthenticationFailed
		if kind != KindNotFound && kind != KindInvalidPassword {
			level, failure = slog.LevelError, ErrAuthenticationUnavailable
		}
		errutil.Log(ctx, s.logger, level, "authentication failed", err, "email_fp", emailFingerprint(email), "reason", string(kind))
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(failure)
	}

	return user.Info(), nil
}

// GetUser returns the user with the given id, preserving the adapter's
// error kind.
func (s *Service[Tx]) GetUser(ctx context.Context, id int64) (_ *UserInfo, err error) {
	ctx, done := s.observe(ctx, "GetUser", attribute.Int64("user_id", id))
	defer func() { done(err) }()

	user, err := Transact(ctx, s.tm, func(ctx context.Context, tx Tx) (*User, error) {
		return s.users.GetUserByID(ctx, tx, id)
	})
	if err != nil {
		return nil, oops.With("operation", "get user").With("user_id", id).Wrap(err)
	}
	return user.Info(), nil
}

// CreateSession stores a new session and returns it with its identifier.
func (s *Service[Tx]) CreateSession(ctx context.Context, session NewSession) (_ *Session, err error) {
	ctx, done := s.observe(ctx, "CreateSession")
	defer func() { done(err) }()

	created, err := Transact(ctx, s.tm, func(ctx context.Context, tx Tx) (*Session, error) {
		return s.sessions.CreateSession(ctx, tx, session)
	})
	if err != nil {
		return nil, oops.With("operation", "create session").Wrap(err)
	}
	return created, nil
}

// SaveSession overwrites an existing session.
func (s *Service[Tx]) SaveSession(ctx context.Context, session Session) (err error) {
	ctx, done := s.observe(ctx, "SaveSession", attribute.String("session_id", session.ID.String()))
	defer func() { done(err) }()

	_, err = Transact(ctx, s.tm, func(ctx context.Context, tx Tx) (*Session, error) {
		return s.sessions.SaveSession(ctx, tx, session)
	})
	if err != nil {
		return oops.With("operation", "save session").With("session_id", session.ID.String()).Wrap(err)
	}
	return nil
}

// LoadSession returns the live session with the given id, or nil when it
// does not exist or has expired.
func (s *Service[Tx]) LoadSession(ctx context.Context, id ulid.ULID) (_ *Session, err error) {
	ctx, done := s.observe(ctx, "LoadSession", attribute.String("session_id", id.String()))
	defer func() { done(err) }()

	session, err := Transact(ctx, s.tm, func(ctx context.Context, tx Tx) (*Session, error) {
		return s.sessions.LoadSession(ctx, tx, id)
	})
	if err != nil {
		return nil, oops.With("operation", "load session").With("session_id", id.String()).Wrap(err)
	}
	return session, nil
}

// DeleteSession removes a session. Unknown ids are not an error.
func (s *Service[Tx]) DeleteSession(ctx context.Context, id ulid.ULID) (err error) {
	ctx, done := s.observe(ctx, "DeleteSession", attribute.String("session_id", id.String()))
	defer func() { done(err) }()

	err = s.tm.InTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return s.sessions.DeleteSession(ctx, tx, id)
	})
	if err != nil {
		return oops.With("operation", "delete session").With("session_id", id.String()).Wrap(err)
	}
	return nil
}

// PurgeExpiredSessions physically removes expired sessions and returns how
// many were deleted.
func (s *Service[Tx]) PurgeExpiredSessions(ctx context.Context) (_ int64, err error) {
	ctx, done := s.observe(ctx, "PurgeExpiredSessions")
	defer func() { done(err) }()

	n, err := Transact(ctx, s.tm, func(ctx context.Context, tx Tx) (int64, error) {
		return s.sessions.DeleteExpired(ctx, tx)
	})
	if err != nil {
		return 0, oops.With("operation", "purge expired sessions").Wrap(err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}

// emailFingerprint identifies a login email in logs without recording it.
func emailFingerprint(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:8])
}

// observe starts a span and returns a completion func recording the
// outcome in the span and the metrics recorder.
func (s *Service[Tx]) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "auth."+op, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		kind := KindOf(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(kind))
		}
		span.End()
		s.metrics.ObserveOperation(op, kind, time.Since(start))
		s.logger.DebugContext(ctx, "auth operation", "operation", op, "outcome", kind.Outcome())
	}
}

// Compile-time interface check.
var _ API = (*Service[any])(nil)
