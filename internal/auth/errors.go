// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Sentinel errors. Wrap them with oops to add a code and context; callers
// classify with errors.Is or KindOf.
var (
	// ErrNotFound is returned when no matching row exists.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPassword is returned when a user exists but the credential
	// does not match.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrDatabase marks a lower-level storage failure.
	ErrDatabase = errors.New("database error")

	// ErrMessage marks a generic internal failure such as a hashing error.
	ErrMessage = errors.New("internal error")
)

// ErrAuthenticationFailed is the failure Authenticate reports. It matches
// ErrNotFound under errors.Is whatever the underlying cause was.
var ErrAuthenticationFailed error = authFailedError{}

// ErrAuthenticationUnavailable is reported by Authenticate when storage or
// hashing failed rather than the credentials. Its message is the same as
// ErrAuthenticationFailed and it matches both that and ErrNotFound, so
// only in-process callers that ask for it can tell an outage apart.
var ErrAuthenticationUnavailable error = authFailedError{unavailable: true}

type authFailedError struct{ unavailable bool }

func (authFailedError) Error() string { return "invalid email or password" }

func (authFailedError) Is(target error) bool {
	return target == ErrNotFound || target == ErrAuthenticationFailed
}

// ErrorKind is the coarse classification of an error returned by this package.
type ErrorKind string

// Error kinds.
const (
	KindNone            ErrorKind = ""
	KindNotFound        ErrorKind = "not_found"
	KindInvalidPassword ErrorKind = "invalid_password"
	KindDatabase        ErrorKind = "database"
	KindMessage         ErrorKind = "message"
)

// KindOf classifies err. Unknown non-nil errors are KindMessage.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidPassword):
		return KindInvalidPassword
	case errors.Is(err, ErrDatabase):
		return KindDatabase
	default:
		return KindMessage
	}
}

// Outcome is the kind as a metrics label: "ok" for KindNone.
func (k ErrorKind) Outcome() string {
	if k == KindNone {
		return "ok"
	}
	return string(k)
}

// DatabaseError wraps a storage failure with the operation that caused it.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	if e.Op == "" {
		return "database error: " + e.Err.Error()
	}
	return "database error: " + e.Op + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// Is reports DatabaseError as ErrDatabase.
func (e *DatabaseError) Is(target error) bool { return target == ErrDatabase }

// NewDatabaseError builds a coded DatabaseError. It returns nil when err is nil.
func NewDatabaseError(code, op string, err error) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).
		With("step", op).
		Wrap(&DatabaseError{Op: op, Err: err})
}
