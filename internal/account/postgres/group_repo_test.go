// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimehook/chimehook/internal/account"
)

func TestGroupRepository_GetOrCreate(t *testing.T) {
	ownerID := ulid.Make()
	existingID := ulid.Make()
	now := time.Now()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, candidate *account.Group)
		wantID    func(candidate *account.Group) ulid.ULID
		wantErr   bool
	}{
		{
			name: "insert wins and returns the candidate row",
			setupMock: func(mock pgxmock.PgxPoolIface, candidate *account.Group) {
				mock.ExpectExec(`INSERT INTO groups`).
					WithArgs(candidate.ID.String(), candidate.Name, candidate.OwnerID.String(), candidate.CreatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				rows := pgxmock.NewRows([]string{"id", "name", "owner_id", "created_at"}).
					AddRow(candidate.ID.String(), candidate.Name, candidate.OwnerID.String(), candidate.CreatedAt)
				mock.ExpectQuery(`SELECT id, name, owner_id, created_at`).
					WithArgs(candidate.Name).
					WillReturnRows(rows)
			},
			wantID: func(candidate *account.Group) ulid.ULID { return candidate.ID },
		},
		{
			name: "conflict loses and returns the existing row",
			setupMock: func(mock pgxmock.PgxPoolIface, candidate *account.Group) {
				mock.ExpectExec(`INSERT INTO groups`).
					WithArgs(candidate.ID.String(), candidate.Name, candidate.OwnerID.String(), candidate.CreatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
				rows := pgxmock.NewRows([]string{"id", "name", "owner_id", "created_at"}).
					AddRow(existingID.String(), candidate.Name, ulid.Make().String(), now)
				mock.ExpectQuery(`SELECT id, name, owner_id, created_at`).
					WithArgs(candidate.Name).
					WillReturnRows(rows)
			},
			wantID: func(*account.Group) ulid.ULID { return existingID },
		},
		{
			name: "upsert failure surfaces",
			setupMock: func(mock pgxmock.PgxPoolIface, candidate *account.Group) {
				mock.ExpectExec(`INSERT INTO groups`).
					WithArgs(candidate.ID.String(), candidate.Name, candidate.OwnerID.String(), candidate.CreatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			candidate, err := account.NewGroup("operators", ownerID)
			require.NoError(t, err)
			tt.setupMock(mock, candidate)

			repo := NewGroupRepository(mock)
			got, err := repo.GetOrCreate(context.Background(), candidate)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID(candidate), got.ID)
				assert.Equal(t, "operators", got.Name)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestGroupRepository_GetByName(t *testing.T) {
	t.Run("missing group maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, name, owner_id, created_at`).
			WithArgs("ghosts").
			WillReturnError(pgx.ErrNoRows)

		repo := NewGroupRepository(mock)
		_, err = repo.GetByName(context.Background(), "ghosts")
		require.Error(t, err)
		assert.True(t, errors.Is(err, account.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestGroupRepository_SetOwner(t *testing.T) {
	groupID := ulid.Make()
	ownerID := ulid.Make()

	t.Run("successful reassignment", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE groups SET owner_id`).
			WithArgs(groupID.String(), ownerID.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewGroupRepository(mock)
		require.NoError(t, repo.SetOwner(context.Background(), groupID, ownerID))
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("unknown group maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE groups SET owner_id`).
			WithArgs(groupID.String(), ownerID.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewGroupRepository(mock)
		err = repo.SetOwner(context.Background(), groupID, ownerID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, account.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestGroupRepository_IsOwnedBy(t *testing.T) {
	ownerID := ulid.Make()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(ownerID.String(), "operators").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewGroupRepository(mock)
	owned, err := repo.IsOwnedBy(context.Background(), ownerID, "operators")
	require.NoError(t, err)
	assert.True(t, owned)

	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestGroupRepository_ListOwnedBy(t *testing.T) {
	ownerID := ulid.Make()
	now := time.Now()

	t.Run("returns rows oldest first", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "name", "owner_id", "created_at"}).
			AddRow(ulid.Make().String(), "ops", ownerID.String(), now.Add(-time.Hour)).
			AddRow(ulid.Make().String(), "dev", ownerID.String(), now)
		mock.ExpectQuery(`SELECT id, name, owner_id, created_at`).
			WithArgs(ownerID.String()).
			WillReturnRows(rows)

		repo := NewGroupRepository(mock)
		got, err := repo.ListOwnedBy(context.Background(), ownerID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "ops", got[0].Name)
		assert.Equal(t, "dev", got[1].Name)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("no rows yields an empty list", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, name, owner_id, created_at`).
			WithArgs(ownerID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "owner_id", "created_at"}))

		repo := NewGroupRepository(mock)
		got, err := repo.ListOwnedBy(context.Background(), ownerID)
		require.NoError(t, err)
		assert.Empty(t, got)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("corrupt id surfaces", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "name", "owner_id", "created_at"}).
			AddRow("not-a-ulid", "ops", ownerID.String(), now)
		mock.ExpectQuery(`SELECT id, name, owner_id, created_at`).
			WithArgs(ownerID.String()).
			WillReturnRows(rows)

		repo := NewGroupRepository(mock)
		_, err = repo.ListOwnedBy(context.Background(), ownerID)
		require.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}
