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

// UserRepository implements account.UserRepository using PostgreSQL.
// The unique index over LOWER(username) is what enforces case-insensitive
// uniqueness; Create surfaces its violation as ErrUsernameTaken.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ account.UserRepository = (*UserRepository)(nil)

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *account.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, salt, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Username,
		user.Email,
		user.Credential.HashValue(),
		user.Credential.SaltValue(),
		user.JoinedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_USERNAME_TAKEN").
				With("username", user.Username).
				Wrap(account.ErrUsernameTaken)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(storeErr(err))
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, salt, joined_at, updated_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("id", id.String()).
			Wrap(storeErr(err))
	}
	return user, nil
}

// GetByUsername retrieves a user by username (case-insensitive).
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*account.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, salt, joined_at, updated_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`, username)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("username", username).
			Wrap(storeErr(err))
	}
	return user, nil
}

// ExistsUsername reports whether the normalized username is taken.
func (r *UserRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))
	`, username).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").
			With("username", username).
			Wrap(storeErr(err))
	}
	return exists, nil
}

// UpdateCredential replaces the stored credential for a user. A modern
// credential writes NULL into the salt column, which is how legacy records
// shed their salt on upgrade.
func (r *UserRepository) UpdateCredential(ctx context.Context, id ulid.ULID, cred account.Credential) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, salt = $3, updated_at = $4
		WHERE id = $1
	`, id.String(), cred.HashValue(), cred.SaltValue(), time.Now())
	if err != nil {
		return oops.Code("USER_UPDATE_CREDENTIAL_FAILED").
			With("id", id.String()).
			Wrap(storeErr(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// Delete removes a user. Auth tokens cascade via their foreign key.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM users WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("id", id.String()).
			Wrap(storeErr(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// scanUser scans a user row and reconstructs the credential variant.
func (r *UserRepository) scanUser(row pgx.Row) (*account.User, error) {
	var (
		idStr    string
		username string
		email    string
		hash     string
		salt     *string
		joinedAt time.Time
		updated  time.Time
	)
	if err := row.Scan(&idStr, &username, &email, &hash, &salt, &joinedAt, &updated); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}

	cred, err := account.ParseCredential(hash, salt)
	if err != nil {
		return nil, err
	}

	return &account.User{
		ID:         id,
		Username:   username,
		Email:      email,
		Credential: cred,
		JoinedAt:   joinedAt,
		UpdatedAt:  updated,
	}, nil
}
