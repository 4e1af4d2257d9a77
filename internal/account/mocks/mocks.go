// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

// Package mocks provides testify mocks for the account package interfaces.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/chimehook/chimehook/internal/account"
)

// MockUserRepository mocks account.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a new MockUserRepository bound to t.
func NewMockUserRepository(t *testing.T) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, user *account.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*account.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*account.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*account.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdateCredential(ctx context.Context, id ulid.ULID, cred account.Credential) error {
	args := m.Called(ctx, id, cred)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGroupRepository mocks account.GroupRepository.
type MockGroupRepository struct {
	mock.Mock
}

// NewMockGroupRepository creates a new MockGroupRepository bound to t.
func NewMockGroupRepository(t *testing.T) *MockGroupRepository {
	m := &MockGroupRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGroupRepository) GetOrCreate(ctx context.Context, candidate *account.Group) (*account.Group, error) {
	args := m.Called(ctx, candidate)
	if g := args.Get(0); g != nil {
		return g.(*account.Group), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGroupRepository) GetByName(ctx context.Context, name string) (*account.Group, error) {
	args := m.Called(ctx, name)
	if g := args.Get(0); g != nil {
		return g.(*account.Group), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGroupRepository) SetOwner(ctx context.Context, id, ownerID ulid.ULID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockGroupRepository) IsOwnedBy(ctx context.Context, ownerID ulid.ULID, name string) (bool, error) {
	args := m.Called(ctx, ownerID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupRepository) ListOwnedBy(ctx context.Context, ownerID ulid.ULID) ([]*account.Group, error) {
	args := m.Called(ctx, ownerID)
	if g := args.Get(0); g != nil {
		return g.([]*account.Group), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuthTokenRepository mocks account.AuthTokenRepository.
type MockAuthTokenRepository struct {
	mock.Mock
}

// NewMockAuthTokenRepository creates a new MockAuthTokenRepository bound to t.
func NewMockAuthTokenRepository(t *testing.T) *MockAuthTokenRepository {
	m := &MockAuthTokenRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuthTokenRepository) Create(ctx context.Context, token *account.AuthToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthTokenRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*account.AuthToken, error) {
	args := m.Called(ctx, ownerID)
	if tks := args.Get(0); tks != nil {
		return tks.([]*account.AuthToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthTokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockResetTokenStore mocks account.ResetTokenStore.
type MockResetTokenStore struct {
	mock.Mock
}

// NewMockResetTokenStore creates a new MockResetTokenStore bound to t.
func NewMockResetTokenStore(t *testing.T) *MockResetTokenStore {
	m := &MockResetTokenStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockResetTokenStore) Add(ctx context.Context, userID ulid.ULID, tokenHash string, ttl time.Duration) error {
	args := m.Called(ctx, userID, tokenHash, ttl)
	return args.Error(0)
}

func (m *MockResetTokenStore) Exists(ctx context.Context, userID ulid.ULID, tokenHash string) (bool, error) {
	args := m.Called(ctx, userID, tokenHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockResetTokenStore) Count(ctx context.Context, userID ulid.ULID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockResetTokenStore) Clear(ctx context.Context, userID ulid.ULID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockHasher mocks account.Hasher.
type MockHasher struct {
	mock.Mock
}

// NewMockHasher creates a new MockHasher bound to t.
func NewMockHasher(t *testing.T) *MockHasher {
	m := &MockHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockHasher) Hash(password string) (account.Credential, error) {
	args := m.Called(password)
	if c := args.Get(0); c != nil {
		return c.(account.Credential), args.Error(1)
	}
	return nil, args.Error(1)
}
