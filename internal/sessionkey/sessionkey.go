// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

// Package sessionkey maps between the signed 128-bit integers that address
// sessions in the session-store contract and the ULIDs used as storage keys.
//
// The mapping writes the integer big-endian with the sign bit flipped, so it
// is a bijection that preserves order: the most negative ID maps to the zero
// ULID and the most positive ID to the maximum ULID.
package sessionkey

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

const signBit = uint64(1) << 63

// ID is a signed 128-bit integer in two's complement. Hi holds the upper
// 64 bits including the sign; Lo holds the lower 64 bits.
type ID struct {
	Hi int64
	Lo uint64
}

// Bounds of the ID range.
var (
	MinID = ID{Hi: math.MinInt64, Lo: 0}
	MaxID = ID{Hi: math.MaxInt64, Lo: math.MaxUint64}
)

// FromInt64 sign-extends v into an ID.
func FromInt64(v int64) ID {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return ID{Hi: hi, Lo: uint64(v)}
}

// Encode converts an ID into its storage ULID.
func Encode(id ID) ulid.ULID {
	var u ulid.ULID
	binary.BigEndian.PutUint64(u[:8], uint64(id.Hi)^signBit)
	binary.BigEndian.PutUint64(u[8:], id.Lo)
	return u
}

// Decode converts a storage ULID back into an ID.
func Decode(u ulid.ULID) ID {
	return ID{
		Hi: int64(binary.BigEndian.Uint64(u[:8]) ^ signBit),
		Lo: binary.BigEndian.Uint64(u[8:]),
	}
}

// ULID is shorthand for Encode(id).
func (id ID) ULID() ulid.ULID { return Encode(id) }

// Cmp compares id and other as signed integers, returning -1, 0 or +1.
func (id ID) Cmp(other ID) int {
	switch {
	case id.Hi < other.Hi:
		return -1
	case id.Hi > other.Hi:
		return 1
	case id.Lo < other.Lo:
		return -1
	case id.Lo > other.Lo:
		return 1
	default:
		return 0
	}
}

// Big returns the value as a big.Int.
func (id ID) Big() *big.Int {
	v := new(big.Int).SetInt64(id.Hi)
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(id.Lo))
}

// String formats the ID in decimal.
func (id ID) String() string { return id.Big().String() }

var (
	minBig = MinID.Big()
	maxBig = MaxID.Big()
	mask64 = new(big.Int).SetUint64(math.MaxUint64)
)

// FromBig converts v into an ID. Values outside the signed 128-bit range
// are rejected.
func FromBig(v *big.Int) (ID, error) {
	if v.Cmp(minBig) < 0 || v.Cmp(maxBig) > 0 {
		return ID{}, oops.Code("SESSION_KEY_OUT_OF_RANGE").
			With("value", v.String()).
			Errorf("value does not fit in 128 bits")
	}
	lo := new(big.Int).And(v, mask64) // two's complement low word for negatives too
	hi := new(big.Int).Rsh(v, 64)     // arithmetic shift keeps the sign
	return ID{Hi: hi.Int64(), Lo: lo.Uint64()}, nil
}

// Parse reads a decimal ID as produced by String.
func Parse(s string) (ID, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return ID{}, oops.Code("SESSION_KEY_INVALID").
			With("value", s).
			Errorf("invalid session key")
	}
	return FromBig(v)
}
