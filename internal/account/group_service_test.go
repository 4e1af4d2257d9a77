// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chimehook/chimehook/internal/account"
	"github.com/chimehook/chimehook/internal/account/mocks"
)

func testUser(t *testing.T) *account.User {
	t.Helper()
	user, err := account.NewUser("alice", "alice@example.com", mustCredential(t))
	require.NoError(t, err)
	return user
}

func TestRegistry_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("passes a normalized candidate to the store", func(t *testing.T) {
		groups := mocks.NewMockGroupRepository(t)
		registry := account.NewRegistry(groups)
		user := testUser(t)

		groups.On("GetOrCreate", ctx, mock.MatchedBy(func(g *account.Group) bool {
			return g.Name == "operators" && g.OwnerID == user.ID
		})).Return(&account.Group{ID: ulid.Make(), Name: "operators", OwnerID: user.ID}, nil)

		group, err := registry.GetOrCreate(ctx, user, "  Operators ")
		require.NoError(t, err)
		assert.Equal(t, "operators", group.Name)
	})

	t.Run("invalid name rejected before store", func(t *testing.T) {
		groups := mocks.NewMockGroupRepository(t)
		registry := account.NewRegistry(groups)

		_, err := registry.GetOrCreate(ctx, testUser(t), "   ")
		require.Error(t, err)
		groups.AssertNotCalled(t, "GetOrCreate")
	})
}

func TestRegistry_AddOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("no-op when the user already owns the group", func(t *testing.T) {
		groups := mocks.NewMockGroupRepository(t)
		registry := account.NewRegistry(groups)
		user := testUser(t)

		existing := &account.Group{ID: ulid.Make(), Name: "ops", OwnerID: user.ID}
		groups.On("GetOrCreate", ctx, mock.Anything).Return(existing, nil)

		require.NoError(t, registry.AddOwnership(ctx, user, "ops"))
		groups.AssertNotCalled(t, "SetOwner")
	})

	t.Run("transfers ownership when owned by someone else", func(t *testing.T) {
		groups := mocks.NewMockGroupRepository(t)
		registry := account.NewRegistry(groups)
		user := testUser(t)

		existing := &account.Group{ID: ulid.Make(), Name: "ops", OwnerID: ulid.Make()}
		groups.On("GetOrCreate", ctx, mock.Anything).Return(existing, nil)
		groups.On("SetOwner", ctx, existing.ID, user.ID).Return(nil)

		require.NoError(t, registry.AddOwnership(ctx, user, "ops"))
	})
}

func TestRegistry_IsMember(t *testing.T) {
	ctx := context.Background()

	t.Run("checks the normalized name", func(t *testing.T) {
		groups := mocks.NewMockGroupRepository(t)
		registry := account.NewRegistry(groups)
		user := testUser(t)

		groups.On("IsOwnedBy", ctx, user.ID, "ops").Return(true, nil)

		ok, err := registry.IsMember(ctx, user, "  OPS ")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRegistry_RequireGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("nil user fails closed", func(t *testing.T) {
		registry := account.NewRegistry(mocks.NewMockGroupRepository(t))

		err := registry.RequireGroup(ctx, nil, "ops")
		require.Error(t, err)
		assert.True(t, errors.Is(err, account.ErrNotFound))
	})

	t.Run("missing membership returns ErrNotFound", func(t *testing.T) {
		groups := mocks.NewMockGroupRepository(t)
		registry := account.NewRegistry(groups)
		user := testUser(t)

		groups.On("IsOwnedBy", ctx, user.ID, "ops").Return(false, nil)

		err := registry.RequireGroup(ctx, user, "ops")
		require.Error(t, err)
		assert.True(t, errors.Is(err, account.ErrNotFound))
	})

	t.Run("membership passes", func(t *testing.T) {
		groups := mocks.NewMockGroupRepository(t)
		registry := account.NewRegistry(groups)
		user := testUser(t)

		groups.On("IsOwnedBy", ctx, user.ID, "ops").Return(true, nil)

		require.NoError(t, registry.RequireGroup(ctx, user, "ops"))
	})
}

func TestRegistry_ListGroups(t *testing.T) {
	ctx := context.Background()

	t.Run("returns owned groups", func(t *testing.T) {
		groups := mocks.NewMockGroupRepository(t)
		registry := account.NewRegistry(groups)
		user := testUser(t)

		owned := []*account.Group{{Name: "ops"}, {Name: "dev"}}
		groups.On("ListOwnedBy", ctx, user.ID).Return(owned, nil)

		got, err := registry.ListGroups(ctx, user)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
