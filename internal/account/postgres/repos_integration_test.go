//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/chimehook/chimehook/internal/account"
	"github.com/chimehook/chimehook/internal/account/postgres"
	"github.com/chimehook/chimehook/internal/store"
)

type integrationRepos struct {
	users  *postgres.UserRepository
	groups *postgres.GroupRepository
	tokens *postgres.AuthTokenRepository
}

func setupDatabase(t *testing.T) *integrationRepos {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrator, err := store.NewMigrator(connStr)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := store.Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return &integrationRepos{
		users:  postgres.NewUserRepository(pool),
		groups: postgres.NewGroupRepository(pool),
		tokens: postgres.NewAuthTokenRepository(pool),
	}
}

func mustUser(t *testing.T, username string) *account.User {
	t.Helper()
	hasher := account.NewArgon2idHasher()
	cred, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)
	user, err := account.NewUser(username, username+"@example.com", cred)
	require.NoError(t, err)
	return user
}

func TestRepositories_EndToEnd(t *testing.T) {
	repos := setupDatabase(t)
	users := repos.users
	ctx := context.Background()

	alice := mustUser(t, "Alice")
	require.NoError(t, users.Create(ctx, alice))

	t.Run("username uniqueness is case-insensitive", func(t *testing.T) {
		dup := mustUser(t, "ALICE")
		err := users.Create(ctx, dup)
		require.Error(t, err)
		assert.True(t, errors.Is(err, account.ErrUsernameTaken))
	})

	t.Run("lookup ignores case and preserves display form", func(t *testing.T) {
		got, err := users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Username)
		assert.Equal(t, alice.ID, got.ID)

		exists, err := users.ExistsUsername(ctx, "aLiCe")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("groups get-or-create is idempotent", func(t *testing.T) {
		candidate, err := account.NewGroup("Operators", alice.ID)
		require.NoError(t, err)

		first, err := repos.groups.GetOrCreate(ctx, candidate)
		require.NoError(t, err)
		assert.Equal(t, "operators", first.Name)

		candidate2, err := account.NewGroup("OPERATORS", alice.ID)
		require.NoError(t, err)
		second, err := repos.groups.GetOrCreate(ctx, candidate2)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID, "same normalized name should resolve to one group")

		owned, err := repos.groups.IsOwnedBy(ctx, alice.ID, "operators")
		require.NoError(t, err)
		assert.True(t, owned)
	})

	t.Run("auth tokens cascade on user delete", func(t *testing.T) {
		bob := mustUser(t, "bob")
		require.NoError(t, users.Create(ctx, bob))

		tok, err := account.NewAuthToken("ci", "deadbeef", bob.ID)
		require.NoError(t, err)
		require.NoError(t, repos.tokens.Create(ctx, tok))

		listed, err := repos.tokens.ListByOwner(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, listed, 1)

		require.NoError(t, users.Delete(ctx, bob.ID))

		listed, err = repos.tokens.ListByOwner(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, listed, "FK cascade should remove orphaned tokens")
	})

	t.Run("credential upgrade clears salt column", func(t *testing.T) {
		legacy := account.NewLegacyCredential("saltsalt", "old password")
		carol, err := account.NewUser("carol", "carol@example.com", legacy)
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, carol))

		hasher := account.NewArgon2idHasher()
		modern, err := hasher.Hash("new password")
		require.NoError(t, err)
		require.NoError(t, users.UpdateCredential(ctx, carol.ID, modern))

		got, err := users.GetByID(ctx, carol.ID)
		require.NoError(t, err)
		assert.False(t, got.Credential.NeedsUpgrade())
		assert.Nil(t, got.Credential.SaltValue())
	})
}
