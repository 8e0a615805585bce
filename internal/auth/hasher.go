// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id defaults.
const (
	DefaultArgon2Time      = 1
	DefaultArgon2MemoryKiB = 64 * 1024
	DefaultArgon2Threads   = 4

	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Wrapf(ErrMessage, "password cannot be empty")

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash produces an encoded, salted hash of the password.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and an
	// error when the stored hash cannot be parsed.
	Verify(password, hash string) (bool, error)
}

// Argon2Params is the cost of new hashes. Verification always uses the
// parameters encoded in the stored hash.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultArgon2Params returns the OWASP baseline.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:      DefaultArgon2Time,
		MemoryKiB: DefaultArgon2MemoryKiB,
		Threads:   DefaultArgon2Threads,
	}
}

// Argon2idHasher implements PasswordHasher using argon2id in PHC format.
type Argon2idHasher struct {
	params Argon2Params
	salt   io.Reader
}

// NewArgon2idHasher creates a hasher with the given cost. Zero fields fall
// back to the defaults.
func NewArgon2idHasher(params Argon2Params) *Argon2idHasher {
	def := DefaultArgon2Params()
	if params.Time == 0 {
		params.Time = def.Time
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Threads == 0 {
		params.Threads = def.Threads
	}
	return &Argon2idHasher{params: params, salt: rand.Reader}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := io.ReadFull(h.salt, salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").
			With("step", "read salt").
			Wrapf(ErrMessage, "%v", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks if the password matches the encoded hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return false, invalidHash("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, invalidHash("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, invalidHash("invalid version segment: %v", err)
	}
	if version != argon2.Version {
		return false, invalidHash("unsupported argon2 version %d", version)
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, invalidHash("invalid parameter segment: %v", err)
	}
	if threads == 0 || threads > 255 {
		return false, invalidHash("threads value %d out of range", threads)
	}
	if iterations == 0 || memory == 0 {
		return false, invalidHash("zero cost parameter")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, invalidHash("invalid salt encoding: %v", err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, invalidHash("invalid key encoding: %v", err)
	}
	keyLen := len(expected)
	if keyLen == 0 || keyLen > 1<<10 {
		return false, invalidHash("invalid key length %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, uint8(threads), uint32(keyLen))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func invalidHash(format string, args ...any) error {
	return oops.Code("AUTH_INVALID_HASH").Errorf(format, args...)
}
