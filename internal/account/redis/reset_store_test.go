// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimehook/chimehook/internal/account"
	accountredis "github.com/chimehook/chimehook/internal/account/redis"
)

func newTestStore(t *testing.T) (*accountredis.ResetTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return accountredis.NewResetTokenStore(client, ""), mr
}

func TestResetTokenStore_AddExists(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	userID := ulid.Make()

	t.Run("added token exists", func(t *testing.T) {
		hash := account.HashResetToken("token-1")
		require.NoError(t, store.Add(ctx, userID, hash, time.Hour))

		ok, err := store.Exists(ctx, userID, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown token does not exist", func(t *testing.T) {
		ok, err := store.Exists(ctx, userID, account.HashResetToken("never-issued"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("different user does not see the token", func(t *testing.T) {
		ok, err := store.Exists(ctx, ulid.Make(), account.HashResetToken("token-1"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non-positive ttl rejected", func(t *testing.T) {
		err := store.Add(ctx, userID, account.HashResetToken("token-2"), 0)
		require.Error(t, err)
	})
}

func TestResetTokenStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	userID := ulid.Make()

	hash := account.HashResetToken("short-lived")
	require.NoError(t, store.Add(ctx, userID, hash, time.Minute))

	ok, err := store.Exists(ctx, userID, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = store.Exists(ctx, userID, hash)
	require.NoError(t, err)
	assert.False(t, ok)

	// Count prunes the stale index member left behind by expiry.
	n, err := store.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestResetTokenStore_Count(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	userID := ulid.Make()

	for _, tok := range []string{"a", "b", "c"} {
		require.NoError(t, store.Add(ctx, userID, account.HashResetToken(tok), time.Hour))
	}
	require.NoError(t, store.Add(ctx, userID, account.HashResetToken("soon"), time.Minute))

	n, err := store.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	mr.FastForward(2 * time.Minute)

	n, err = store.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t.Run("empty user counts zero", func(t *testing.T) {
		n, err := store.Count(ctx, ulid.Make())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestResetTokenStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	userID := ulid.Make()
	otherID := ulid.Make()

	hashA := account.HashResetToken("a")
	require.NoError(t, store.Add(ctx, userID, hashA, time.Hour))
	require.NoError(t, store.Add(ctx, userID, account.HashResetToken("b"), time.Hour))

	otherHash := account.HashResetToken("other")
	require.NoError(t, store.Add(ctx, otherID, otherHash, time.Hour))

	require.NoError(t, store.Clear(ctx, userID))

	n, err := store.Count(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ok, err := store.Exists(ctx, userID, hashA)
	require.NoError(t, err)
	assert.False(t, ok)

	// Other users are untouched.
	ok, err = store.Exists(ctx, otherID, otherHash)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("clearing an empty user is a no-op", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, ulid.Make()))
	})
}

func TestResetTokenStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	userID := ulid.Make()

	mr.Close()

	err := store.Add(ctx, userID, account.HashResetToken("x"), time.Hour)
	require.Error(t, err)
	assert.True(t, errors.Is(err, account.ErrStoreUnavailable))
}
