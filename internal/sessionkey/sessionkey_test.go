// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package sessionkey_test

import (
	"math"
	"math/big"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authplay/authplay/internal/errutil"
	"github.com/authplay/authplay/internal/sessionkey"
)

func TestEncode_Bounds(t *testing.T) {
	assert.Equal(t, ulid.ULID{}, sessionkey.Encode(sessionkey.MinID))
	assert.Equal(t, ulid.MustParse("7ZZZZZZZZZZZZZZZZZZZZZZZZZ"), sessionkey.Encode(sessionkey.MaxID))
	assert.Equal(t, "-170141183460469231731687303715884105728", sessionkey.MinID.String())
	assert.Equal(t, "170141183460469231731687303715884105727", sessionkey.MaxID.String())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	ids := []sessionkey.ID{
		sessionkey.MinID,
		sessionkey.MaxID,
		sessionkey.FromInt64(0),
		sessionkey.FromInt64(-1),
		sessionkey.FromInt64(1),
		sessionkey.FromInt64(math.MinInt64),
		sessionkey.FromInt64(math.MaxInt64),
		{Hi: 42, Lo: 0xdeadbeef},
	}
	for _, id := range ids {
		t.Run(id.String(), func(t *testing.T) {
			assert.Equal(t, id, sessionkey.Decode(sessionkey.Encode(id)))
		})
	}
}

func TestDecodeEncode_RoundTrip(t *testing.T) {
	for _, s := range []string{"01ARZ3NDEKTSV4RRFFQ69G5FAV", "00000000000000000000000000", "7ZZZZZZZZZZZZZZZZZZZZZZZZZ"} {
		u := ulid.MustParse(s)
		assert.Equal(t, u, sessionkey.Encode(sessionkey.Decode(u)), s)
	}
}

func TestEncode_PreservesOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	ids := []sessionkey.ID{sessionkey.MinID, sessionkey.MaxID, sessionkey.FromInt64(-1), sessionkey.FromInt64(0)}
	for range 200 {
		ids = append(ids, sessionkey.ID{Hi: int64(rng.Uint64()), Lo: rng.Uint64()})
	}

	slices.SortFunc(ids, sessionkey.ID.Cmp)
	for i := 1; i < len(ids); i++ {
		prev, cur := sessionkey.Encode(ids[i-1]), sessionkey.Encode(ids[i])
		assert.LessOrEqual(t, prev.Compare(cur), 0, "%s then %s", ids[i-1], ids[i])
		assert.LessOrEqual(t, prev.String(), cur.String())
	}
}

func TestID_Cmp(t *testing.T) {
	tests := []struct {
		a, b sessionkey.ID
		want int
	}{
		{sessionkey.FromInt64(-1), sessionkey.FromInt64(0), -1},
		{sessionkey.FromInt64(0), sessionkey.FromInt64(-1), 1},
		{sessionkey.ID{Hi: 0, Lo: 1}, sessionkey.ID{Hi: 0, Lo: 2}, -1},
		{sessionkey.ID{Hi: 1, Lo: 0}, sessionkey.ID{Hi: 0, Lo: math.MaxUint64}, 1},
		{sessionkey.MaxID, sessionkey.MaxID, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Cmp(tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestFromBig(t *testing.T) {
	t.Run("negative values use two's complement", func(t *testing.T) {
		id, err := sessionkey.FromBig(big.NewInt(-2))
		require.NoError(t, err)
		assert.Equal(t, sessionkey.ID{Hi: -1, Lo: math.MaxUint64 - 1}, id)
		assert.Equal(t, sessionkey.FromInt64(-2), id)
	})

	t.Run("agrees with Big", func(t *testing.T) {
		for _, id := range []sessionkey.ID{sessionkey.MinID, sessionkey.MaxID, {Hi: -7, Lo: 9}} {
			got, err := sessionkey.FromBig(id.Big())
			require.NoError(t, err)
			assert.Equal(t, id, got)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		tooBig := new(big.Int).Add(sessionkey.MaxID.Big(), big.NewInt(1))
		tooSmall := new(big.Int).Sub(sessionkey.MinID.Big(), big.NewInt(1))
		for _, v := range []*big.Int{tooBig, tooSmall} {
			_, err := sessionkey.FromBig(v)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "SESSION_KEY_OUT_OF_RANGE")
		}
	})
}

func TestParse(t *testing.T) {
	id, err := sessionkey.Parse("-12345678901234567890123")
	require.NoError(t, err)
	assert.Equal(t, "-12345678901234567890123", id.String())

	_, err = sessionkey.Parse("twelve")
	errutil.AssertErrorCode(t, err, "SESSION_KEY_INVALID")

	_, err = sessionkey.Parse("170141183460469231731687303715884105728")
	errutil.AssertErrorCode(t, err, "SESSION_KEY_OUT_OF_RANGE")
}

func TestID_ULID(t *testing.T) {
	id := sessionkey.ID{Hi: 3, Lo: 4}
	assert.Equal(t, sessionkey.Encode(id), id.ULID())
}
