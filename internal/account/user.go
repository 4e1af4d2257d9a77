// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package account

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 50
)

// usernameRegex matches usernames containing only letters, numbers, and
// underscores. Usernames are public and appear in project URLs.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// User represents a registered account.
type User struct {
	ID         ulid.ULID
	Username   string
	Email      string
	Credential Credential
	JoinedAt   time.Time
	UpdatedAt  time.Time
}

// NewUser creates a validated User with a freshly hashed credential.
// The username keeps its original case for display; uniqueness and lookup
// use NormalizeUsername. The email is lower-cased and trimmed.
func NewUser(username, email string, cred Credential) (*User, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, oops.Code("ACCOUNT_INVALID_CREDENTIAL").Errorf("credential cannot be nil")
	}

	now := time.Now()
	return &User{
		ID:         ulid.Make(),
		Username:   username,
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Credential: cred,
		JoinedAt:   now,
		UpdatedAt:  now,
	}, nil
}

// NormalizeUsername returns the case-insensitive uniqueness and lookup key
// for a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername validates a username against rules.
// Username requirements:
//   - Length: MinUsernameLength to MaxUsernameLength characters
//   - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("ACCOUNT_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			Errorf("username must only contain letters, numbers, and underscores")
	}
	return nil
}

// UserRepository manages user persistence.
//
// Uniqueness of the normalized username is enforced by the store itself
// (a unique index over the lower-cased column), never by a read-then-write
// in application code: Create must fail with ErrUsernameTaken when a
// case-variant of the username already exists, even under concurrency.
type UserRepository interface {
	// Create stores a new user. Returns ErrUsernameTaken if the normalized
	// username already exists.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByUsername retrieves a user by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*User, error)

	// ExistsUsername reports whether the normalized username is taken.
	ExistsUsername(ctx context.Context, username string) (bool, error)

	// UpdateCredential replaces the stored credential for a user.
	UpdateCredential(ctx context.Context, id ulid.ULID, cred Credential) error

	// Delete removes a user. Auth tokens owned by the user are removed by
	// the store-level cascade.
	Delete(ctx context.Context, id ulid.ULID) error
}
