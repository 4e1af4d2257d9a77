// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Registry provides group ownership operations used for authorization
// checks. Membership here means ownership: a user is "in" a group iff it
// owns the group. There is no separate membership relation.
type Registry struct {
	groups GroupRepository
}

// NewRegistry creates a new group Registry.
func NewRegistry(groups GroupRepository) *Registry {
	return &Registry{groups: groups}
}

// GetOrCreate returns the group with the given name, creating it (owned by
// ownerID) if it does not exist. Two concurrent creations of the same
// normalized name converge on a single row via the store's upsert.
func (r *Registry) GetOrCreate(ctx context.Context, user *User, name string) (*Group, error) {
	candidate, err := NewGroup(name, user.ID)
	if err != nil {
		return nil, err
	}

	group, err := r.groups.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, oops.Code("GROUP_GET_OR_CREATE_FAILED").
			With("name", candidate.Name).
			Wrap(err)
	}
	return group, nil
}

// AddOwnership assigns ownership of the named group to the user. Idempotent:
// if the user already owns it, nothing changes. If the group exists under a
// different owner, ownership moves to the user.
func (r *Registry) AddOwnership(ctx context.Context, user *User, name string) error {
	group, err := r.GetOrCreate(ctx, user, name)
	if err != nil {
		return err
	}

	if group.OwnerID.Compare(user.ID) == 0 {
		return nil
	}

	if err := r.groups.SetOwner(ctx, group.ID, user.ID); err != nil {
		return oops.Code("GROUP_SET_OWNER_FAILED").
			With("group_id", group.ID.String()).
			With("owner_id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// IsMember reports whether the user owns a group with the given name.
// Comparison uses the normalized name, so IsMember(user, "OPS") matches a
// group created as "Ops".
func (r *Registry) IsMember(ctx context.Context, user *User, name string) (bool, error) {
	owned, err := r.groups.IsOwnedBy(ctx, user.ID, NormalizeGroupName(name))
	if err != nil {
		return false, oops.Code("GROUP_MEMBERSHIP_CHECK_FAILED").
			With("user_id", user.ID.String()).
			With("name", NormalizeGroupName(name)).
			Wrap(err)
	}
	return owned, nil
}

// RequireGroup is the capability check the request-handling layer calls
// before guarded operations. Returns ErrNotFound when the user lacks the
// group, so callers can redirect without leaking detail.
func (r *Registry) RequireGroup(ctx context.Context, user *User, name string) error {
	if user == nil {
		return oops.Code("GROUP_REQUIRED").Wrap(ErrNotFound)
	}
	ok, err := r.IsMember(ctx, user, name)
	if err != nil {
		return err
	}
	if !ok {
		return oops.Code("GROUP_REQUIRED").
			With("name", NormalizeGroupName(name)).
			Wrap(ErrNotFound)
	}
	return nil
}

// ListGroups returns all groups the user owns.
func (r *Registry) ListGroups(ctx context.Context, user *User) ([]*Group, error) {
	groups, err := r.groups.ListOwnedBy(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("GROUP_LIST_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return groups, nil
}
