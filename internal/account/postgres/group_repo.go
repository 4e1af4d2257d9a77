// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chimehook/chimehook/internal/account"
)

// GroupRepository implements account.GroupRepository using PostgreSQL.
type GroupRepository struct {
	pool poolIface
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool poolIface) *GroupRepository {
	return &GroupRepository{pool: pool}
}

var _ account.GroupRepository = (*GroupRepository)(nil)

// GetOrCreate inserts the candidate row unless a group with its name already
// exists, then fetches whichever row won. ON CONFLICT DO NOTHING on the
// unique name makes concurrent creations converge on a single row without
// application-level locking.
func (r *GroupRepository) GetOrCreate(ctx context.Context, candidate *account.Group) (*account.Group, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO groups (id, name, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`, candidate.ID.String(), candidate.Name, candidate.OwnerID.String(), candidate.CreatedAt)
	if err != nil {
		return nil, oops.Code("GROUP_UPSERT_FAILED").
			With("name", candidate.Name).
			Wrap(storeErr(err))
	}

	return r.GetByName(ctx, candidate.Name)
}

// GetByName retrieves a group by normalized name.
func (r *GroupRepository) GetByName(ctx context.Context, name string) (*account.Group, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at
		FROM groups
		WHERE name = $1
	`, name)

	group, err := r.scanGroup(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("GROUP_NOT_FOUND").
			With("name", name).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("GROUP_GET_BY_NAME_FAILED").
			With("name", name).
			Wrap(storeErr(err))
	}
	return group, nil
}

// SetOwner reassigns a group's owner.
func (r *GroupRepository) SetOwner(ctx context.Context, id, ownerID ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE groups SET owner_id = $2 WHERE id = $1
	`, id.String(), ownerID.String())
	if err != nil {
		return oops.Code("GROUP_SET_OWNER_FAILED").
			With("id", id.String()).
			Wrap(storeErr(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("GROUP_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// IsOwnedBy reports whether the user owns a group with the given name.
func (r *GroupRepository) IsOwnedBy(ctx context.Context, ownerID ulid.ULID, name string) (bool, error) {
	var owned bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM groups WHERE owner_id = $1 AND name = $2)
	`, ownerID.String(), name).Scan(&owned)
	if err != nil {
		return false, oops.Code("GROUP_OWNERSHIP_CHECK_FAILED").
			With("owner_id", ownerID.String()).
			With("name", name).
			Wrap(storeErr(err))
	}
	return owned, nil
}

// ListOwnedBy returns all groups owned by the user, oldest first.
func (r *GroupRepository) ListOwnedBy(ctx context.Context, ownerID ulid.ULID) ([]*account.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, owner_id, created_at
		FROM groups
		WHERE owner_id = $1
		ORDER BY created_at
	`, ownerID.String())
	if err != nil {
		return nil, oops.Code("GROUP_LIST_FAILED").
			With("owner_id", ownerID.String()).
			Wrap(storeErr(err))
	}
	defer rows.Close()

	var groups []*account.Group
	for rows.Next() {
		group, err := r.scanGroup(rows)
		if err != nil {
			return nil, oops.Code("GROUP_LIST_FAILED").
				With("operation", "scan group row").
				Wrap(err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("GROUP_LIST_FAILED").
			With("operation", "iterate groups").
			Wrap(storeErr(err))
	}

	return groups, nil
}

// scanGroup scans a group row.
func (r *GroupRepository) scanGroup(row pgx.Row) (*account.Group, error) {
	var (
		idStr     string
		name      string
		ownerStr  string
		createdAt time.Time
	)
	if err := row.Scan(&idStr, &name, &ownerStr, &createdAt); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("GROUP_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	ownerID, err := ulid.Parse(ownerStr)
	if err != nil {
		return nil, oops.Code("GROUP_CORRUPT_ID").With("owner_id", ownerStr).Wrap(err)
	}

	return &account.Group{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: createdAt,
	}, nil
}
