// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package auth

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// IDSource generates session identifiers.
type IDSource interface {
	NewID() (ulid.ULID, error)
}

// RandomIDSource issues ULIDs with a millisecond timestamp and 80 bits of
// cryptographically random entropy. The timestamp prefix keeps inserts
// clustered in the primary key index. Safe for concurrent use.
type RandomIDSource struct {
	now     func() time.Time
	entropy io.Reader
}

// NewRandomIDSource returns an IDSource backed by crypto/rand.
func NewRandomIDSource() *RandomIDSource {
	return &RandomIDSource{now: time.Now, entropy: rand.Reader}
}

// NewID returns a fresh identifier.
func (s *RandomIDSource) NewID() (ulid.ULID, error) {
	id, err := ulid.New(ulid.Timestamp(s.now()), s.entropy)
	if err != nil {
		return ulid.ULID{}, oops.Code("SESSION_ID_GENERATE_FAILED").
			With("step", "generate session id").
			Wrapf(ErrMessage, "%v", err)
	}
	return id, nil
}
