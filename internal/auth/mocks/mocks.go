// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

// Package mocks provides testify mocks of the auth interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/authplay/authplay/internal/auth"
)

// TestingT is the subset of testing.T the constructors need.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t TestingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockUserAdapter is a mock of auth.UserAdapter.
type MockUserAdapter[Tx any] struct {
	mock.Mock
}

// NewMockUserAdapter creates a MockUserAdapter whose expectations are
// asserted when the test ends.
func NewMockUserAdapter[Tx any](t TestingT) *MockUserAdapter[Tx] {
	m := &MockUserAdapter[Tx]{}
	register(t, &m.Mock)
	return m
}

func (m *MockUserAdapter[Tx]) AddUser(ctx context.Context, tx Tx, user auth.NewUser) (*auth.User, error) {
	ret := m.Called(ctx, tx, user)
	return userResult(ret)
}

func (m *MockUserAdapter[Tx]) GetUser(ctx context.Context, tx Tx, email string) (*auth.User, error) {
	ret := m.Called(ctx, tx, email)
	return userResult(ret)
}

func (m *MockUserAdapter[Tx]) GetUserByID(ctx context.Context, tx Tx, id int64) (*auth.User, error) {
	ret := m.Called(ctx, tx, id)
	return userResult(ret)
}

func (m *MockUserAdapter[Tx]) AuthenticateUser(ctx context.Context, tx Tx, email, password string) (*auth.User, error) {
	ret := m.Called(ctx, tx, email, password)
	return userResult(ret)
}

func userResult(ret mock.Arguments) (*auth.User, error) {
	var user *auth.User
	if v := ret.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, ret.Error(1)
}

// MockSessionAdapter is a mock of auth.SessionAdapter.
type MockSessionAdapter[Tx any] struct {
	mock.Mock
}

// NewMockSessionAdapter creates a MockSessionAdapter whose expectations are
// asserted when the test ends.
func NewMockSessionAdapter[Tx any](t TestingT) *MockSessionAdapter[Tx] {
	m := &MockSessionAdapter[Tx]{}
	register(t, &m.Mock)
	return m
}

func (m *MockSessionAdapter[Tx]) CreateSession(ctx context.Context, tx Tx, session auth.NewSession) (*auth.Session, error) {
	ret := m.Called(ctx, tx, session)
	return sessionResult(ret)
}

func (m *MockSessionAdapter[Tx]) SaveSession(ctx context.Context, tx Tx, session auth.Session) (*auth.Session, error) {
	ret := m.Called(ctx, tx, session)
	return sessionResult(ret)
}

func (m *MockSessionAdapter[Tx]) LoadSession(ctx context.Context, tx Tx, id ulid.ULID) (*auth.Session, error) {
	ret := m.Called(ctx, tx, id)
	return sessionResult(ret)
}

func (m *MockSessionAdapter[Tx]) DeleteSession(ctx context.Context, tx Tx, id ulid.ULID) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockSessionAdapter[Tx]) DeleteExpired(ctx context.Context, tx Tx) (int64, error) {
	ret := m.Called(ctx, tx)
	return ret.Get(0).(int64), ret.Error(1)
}

func sessionResult(ret mock.Arguments) (*auth.Session, error) {
	var session *auth.Session
	if v := ret.Get(0); v != nil {
		session = v.(*auth.Session)
	}
	return session, ret.Error(1)
}

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted when the test ends.
func NewMockPasswordHasher(t TestingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	register(t, &m.Mock)
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

func (m *MockPasswordHasher) Verify(password, encodedHash string) (bool, error) {
	ret := m.Called(password, encodedHash)
	return ret.Bool(0), ret.Error(1)
}

// MockIDSource is a mock of auth.IDSource.
type MockIDSource struct {
	mock.Mock
}

// NewMockIDSource creates a MockIDSource whose expectations are asserted
// when the test ends.
func NewMockIDSource(t TestingT) *MockIDSource {
	m := &MockIDSource{}
	register(t, &m.Mock)
	return m
}

func (m *MockIDSource) NewID() (ulid.ULID, error) {
	ret := m.Called()
	return ret.Get(0).(ulid.ULID), ret.Error(1)
}

// MockAPI is a mock of auth.API.
type MockAPI struct {
	mock.Mock
}

// NewMockAPI creates a MockAPI whose expectations are asserted when the
// test ends.
func NewMockAPI(t TestingT) *MockAPI {
	m := &MockAPI{}
	register(t, &m.Mock)
	return m
}

func (m *MockAPI) Register(ctx context.Context, user auth.NewUser) (*auth.User, error) {
	return userResult(m.Called(ctx, user))
}

func (m *MockAPI) Authenticate(ctx context.Context, email, password string) (*auth.UserInfo, error) {
	return userInfoResult(m.Called(ctx, email, password))
}

func (m *MockAPI) GetUser(ctx context.Context, id int64) (*auth.UserInfo, error) {
	return userInfoResult(m.Called(ctx, id))
}

func (m *MockAPI) CreateSession(ctx context.Context, session auth.NewSession) (*auth.Session, error) {
	return sessionResult(m.Called(ctx, session))
}

func (m *MockAPI) SaveSession(ctx context.Context, session auth.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockAPI) LoadSession(ctx context.Context, id ulid.ULID) (*auth.Session, error) {
	return sessionResult(m.Called(ctx, id))
}

func (m *MockAPI) DeleteSession(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

func userInfoResult(ret mock.Arguments) (*auth.UserInfo, error) {
	var info *auth.UserInfo
	if v := ret.Get(0); v != nil {
		info = v.(*auth.UserInfo)
	}
	return info, ret.Error(1)
}

var (
	_ auth.API                 = (*MockAPI)(nil)
	_ auth.UserAdapter[any]    = (*MockUserAdapter[any])(nil)
	_ auth.SessionAdapter[any] = (*MockSessionAdapter[any])(nil)
	_ auth.PasswordHasher      = (*MockPasswordHasher)(nil)
	_ auth.IDSource            = (*MockIDSource)(nil)
)
