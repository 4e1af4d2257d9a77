// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxAuthTokenNameLength bounds auth token names in storage.
const MaxAuthTokenNameLength = 50

// AuthToken is a service credential, such as a third-party OAuth token,
// owned exclusively by one user. Deleting the user deletes its tokens.
// This package only stores them; no validation logic lives here.
type AuthToken struct {
	ID        ulid.ULID
	Name      string
	Token     string
	OwnerID   ulid.ULID
	CreatedAt time.Time
}

// NewAuthToken creates a validated AuthToken.
func NewAuthToken(name, token string, ownerID ulid.ULID) (*AuthToken, error) {
	if name == "" || len(name) > MaxAuthTokenNameLength {
		return nil, oops.Code("ACCOUNT_INVALID_AUTH_TOKEN").
			With("max", MaxAuthTokenNameLength).
			Errorf("auth token name must be 1-%d characters", MaxAuthTokenNameLength)
	}
	if token == "" {
		return nil, oops.Code("ACCOUNT_INVALID_AUTH_TOKEN").Errorf("token value cannot be empty")
	}
	if ownerID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("ACCOUNT_INVALID_AUTH_TOKEN").Errorf("owner ID cannot be zero")
	}

	return &AuthToken{
		ID:        ulid.Make(),
		Name:      name,
		Token:     token,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}, nil
}

// AuthTokenRepository manages auth token persistence.
type AuthTokenRepository interface {
	// Create stores a new auth token.
	Create(ctx context.Context, token *AuthToken) error

	// ListByOwner returns all tokens owned by the user, oldest first.
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*AuthToken, error)

	// Delete removes an auth token.
	Delete(ctx context.Context, id ulid.ULID) error
}
