// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package auth

import (
	"io"
	"time"
)

// WithSaltReader replaces the hasher's salt source.
func (h *Argon2idHasher) WithSaltReader(r io.Reader) *Argon2idHasher {
	h.salt = r
	return h
}

// NewRandomIDSourceWith builds a RandomIDSource over a fixed clock and entropy.
func NewRandomIDSourceWith(now func() time.Time, entropy io.Reader) *RandomIDSource {
	return &RandomIDSource{now: now, entropy: entropy}
}
