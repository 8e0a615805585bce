// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authplay/authplay/internal/auth"
	"github.com/authplay/authplay/internal/auth/mocks"
	"github.com/authplay/authplay/internal/errutil"
)

var userColumns = []string{"id", "name", "email", "password_hash"}

func TestUserAdapter_AddUser(t *testing.T) {
	ctx := context.Background()
	newUser := auth.NewUser{Name: "Foo Bar", Email: "foo@example.com", Password: "foobar"}

	t.Run("inserts hashed password", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Hash", "foobar").Return("$argon2id$hashed", nil).Once()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("Foo Bar", "foo@example.com", "$argon2id$hashed").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		user, err := NewUserAdapter(hasher).AddUser(ctx, mock, newUser)

		require.NoError(t, err)
		assert.Equal(t, &auth.User{ID: 42, Name: "Foo Bar", Email: "foo@example.com", PasswordHash: "$argon2id$hashed"}, user)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email is a database error", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Hash", "foobar").Return("$argon2id$hashed", nil).Once()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("Foo Bar", "foo@example.com", "$argon2id$hashed").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

		user, err := NewUserAdapter(hasher).AddUser(ctx, mock, newUser)

		require.Error(t, err)
		assert.Nil(t, user)
		assert.Equal(t, auth.KindDatabase, auth.KindOf(err))
		errutil.AssertErrorCode(t, err, "USER_CREATE_FAILED")
		errutil.AssertErrorContext(t, err, "unique_violation", true)
	})

	t.Run("other insert failures are not flagged unique", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Hash", "foobar").Return("$argon2id$hashed", nil).Once()
		mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("conn reset"))

		_, err := NewUserAdapter(hasher).AddUser(ctx, mock, newUser)

		errutil.AssertErrorContext(t, err, "unique_violation", false)
	})

	t.Run("hash failure never touches the database", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		hasher.On("Hash", "foobar").Return("", auth.ErrMessage).Once()

		_, err := NewUserAdapter(hasher).AddUser(ctx, mock, newUser)

		assert.Equal(t, auth.KindMessage, auth.KindOf(err))
		errutil.AssertErrorCode(t, err, "USER_HASH_FAILED")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserAdapter_GetUser(t *testing.T) {
	ctx := context.Background()
	a := NewUserAdapter(auth.NewArgon2idHasher(auth.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1}))

	tests := []struct {
		name     string
		setup    func(mock pgxmock.PgxPoolIface)
		wantUser *auth.User
		wantKind auth.ErrorKind
		wantCode string
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT id, name, email, password_hash").
					WithArgs("foo@example.com").
					WillReturnRows(pgxmock.NewRows(userColumns).AddRow(int64(1), "Foo Bar", "foo@example.com", "h"))
			},
			wantUser: &auth.User{ID: 1, Name: "Foo Bar", Email: "foo@example.com", PasswordHash: "h"},
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT id, name, email, password_hash").
					WithArgs("foo@example.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantKind: auth.KindNotFound,
			wantCode: "USER_NOT_FOUND",
		},
		{
			name: "database error",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT id, name, email, password_hash").
					WithArgs("foo@example.com").
					WillReturnError(errors.New("connection refused"))
			},
			wantKind: auth.KindDatabase,
			wantCode: "USER_GET_BY_EMAIL_FAILED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			tt.setup(mock)

			user, err := a.GetUser(ctx, mock, "foo@example.com")

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUser, user)
			} else {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Equal(t, tt.wantKind, auth.KindOf(err))
				errutil.AssertErrorCode(t, err, tt.wantCode)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserAdapter_GetUserByID(t *testing.T) {
	ctx := context.Background()
	a := NewUserAdapter(mocks.NewMockPasswordHasher(t))

	t.Run("found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery("SELECT id, name, email, password_hash").
			WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(int64(3), "Foo Bar", "foo@example.com", "h"))

		user, err := a.GetUserByID(ctx, mock, 3)

		require.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery("SELECT id, name, email, password_hash").
			WithArgs(int64(3)).
			WillReturnError(pgx.ErrNoRows)

		_, err := a.GetUserByID(ctx, mock, 3)

		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorContext(t, err, "user_id", int64(3))
	})

	t.Run("database error", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery("SELECT id, name, email, password_hash").
			WithArgs(int64(3)).
			WillReturnError(errors.New("eof"))

		_, err := a.GetUserByID(ctx, mock, 3)

		assert.Equal(t, auth.KindDatabase, auth.KindOf(err))
		errutil.AssertErrorCode(t, err, "USER_GET_BY_ID_FAILED")
	})
}

func TestUserAdapter_AuthenticateUser(t *testing.T) {
	ctx := context.Background()
	expectUser := func(mock pgxmock.PgxPoolIface) {
		mock.ExpectQuery("SELECT id, name, email, password_hash").
			WithArgs("foo@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(int64(1), "Foo Bar", "foo@example.com", "stored"))
	}

	t.Run("valid password", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		expectUser(mock)
		hasher.On("Verify", "foobar", "stored").Return(true, nil).Once()

		user, err := NewUserAdapter(hasher).AuthenticateUser(ctx, mock, "foo@example.com", "foobar")

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("wrong password is invalid password", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		expectUser(mock)
		hasher.On("Verify", "nope", "stored").Return(false, nil).Once()

		_, err := NewUserAdapter(hasher).AuthenticateUser(ctx, mock, "foo@example.com", "nope")

		assert.Equal(t, auth.KindInvalidPassword, auth.KindOf(err))
		errutil.AssertErrorCode(t, err, "USER_INVALID_PASSWORD")
	})

	t.Run("unparseable stored hash is invalid password", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		expectUser(mock)
		hasher.On("Verify", "foobar", "stored").Return(false, errors.New("invalid hash format")).Once()

		_, err := NewUserAdapter(hasher).AuthenticateUser(ctx, mock, "foo@example.com", "foobar")

		assert.Equal(t, auth.KindInvalidPassword, auth.KindOf(err))
		errutil.AssertErrorCode(t, err, "USER_INVALID_HASH")
	})

	t.Run("unknown email still verifies a dummy hash", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		mock.ExpectQuery("SELECT id, name, email, password_hash").
			WithArgs("ghost@example.com").
			WillReturnError(pgx.ErrNoRows)
		hasher.On("Verify", "pw", dummyPasswordHash).Return(false, nil).Once()

		_, err := NewUserAdapter(hasher).AuthenticateUser(ctx, mock, "ghost@example.com", "pw")

		assert.Equal(t, auth.KindNotFound, auth.KindOf(err))
	})

	t.Run("storage failure skips verification", func(t *testing.T) {
		mock := newMockPool(t)
		hasher := mocks.NewMockPasswordHasher(t)
		mock.ExpectQuery("SELECT id, name, email, password_hash").
			WithArgs("foo@example.com").
			WillReturnError(errors.New("eof"))

		_, err := NewUserAdapter(hasher).AuthenticateUser(ctx, mock, "foo@example.com", "pw")

		assert.Equal(t, auth.KindDatabase, auth.KindOf(err))
	})
}

func TestDummyPasswordHashIsWellFormed(t *testing.T) {
	hasher := auth.NewArgon2idHasher(auth.Argon2Params{})
	ok, err := hasher.Verify("anything", dummyPasswordHash)
	require.NoError(t, err, "dummy hash must parse so unknown users cost a full verification")
	assert.False(t, ok)
}
