// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxGroupNameLength bounds group names in storage.
const MaxGroupNameLength = 255

// Group represents a named group. A user's groups are the groups it owns;
// there is no separate membership table (ownership-as-membership).
type Group struct {
	ID        ulid.ULID
	Name      string
	OwnerID   ulid.ULID
	CreatedAt time.Time
}

// NewGroup creates a validated Group. The name is case-folded to lowercase,
// which is also its global uniqueness key.
func NewGroup(name string, ownerID ulid.ULID) (*Group, error) {
	name = NormalizeGroupName(name)
	if name == "" {
		return nil, oops.Code("ACCOUNT_INVALID_GROUP").Errorf("group name cannot be empty")
	}
	if len(name) > MaxGroupNameLength {
		return nil, oops.Code("ACCOUNT_INVALID_GROUP").
			With("max", MaxGroupNameLength).
			Errorf("group name must be at most %d characters", MaxGroupNameLength)
	}
	if ownerID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("ACCOUNT_INVALID_GROUP").Errorf("owner ID cannot be zero")
	}

	return &Group{
		ID:        ulid.Make(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}, nil
}

// NormalizeGroupName returns the case-folded uniqueness key for a group name.
func NormalizeGroupName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GroupRepository manages group persistence.
//
// Get-or-create must converge on a single row when two creations of the same
// normalized name race: the store's unique constraint plus an idempotent
// upsert is the source of truth, not a read-then-insert.
type GroupRepository interface {
	// GetOrCreate atomically fetches the group with the given normalized
	// name, inserting the candidate row first if no such group exists.
	GetOrCreate(ctx context.Context, candidate *Group) (*Group, error)

	// GetByName retrieves a group by normalized name.
	GetByName(ctx context.Context, name string) (*Group, error)

	// SetOwner reassigns a group's owner.
	SetOwner(ctx context.Context, id, ownerID ulid.ULID) error

	// IsOwnedBy reports whether the user owns a group with the given
	// normalized name.
	IsOwnedBy(ctx context.Context, ownerID ulid.ULID, name string) (bool, error)

	// ListOwnedBy returns all groups owned by the user.
	ListOwnedBy(ctx context.Context, ownerID ulid.ULID) ([]*Group, error)
}
