// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package postgres

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/chimehook/chimehook/internal/account"
)

// AuthTokenRepository implements account.AuthTokenRepository using
// PostgreSQL. Rows are removed by the ON DELETE CASCADE on owner_id when
// the owning user is deleted.
type AuthTokenRepository struct {
	pool poolIface
}

// NewAuthTokenRepository creates a new AuthTokenRepository.
func NewAuthTokenRepository(pool poolIface) *AuthTokenRepository {
	return &AuthTokenRepository{pool: pool}
}

var _ account.AuthTokenRepository = (*AuthTokenRepository)(nil)

// Create stores a new auth token.
func (r *AuthTokenRepository) Create(ctx context.Context, token *account.AuthToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO auth_tokens (id, name, token, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token.ID.String(), token.Name, token.Token, token.OwnerID.String(), token.CreatedAt)
	if err != nil {
		return oops.Code("AUTH_TOKEN_CREATE_FAILED").
			With("owner_id", token.OwnerID.String()).
			With("name", token.Name).
			Wrap(storeErr(err))
	}
	return nil
}

// ListByOwner returns all tokens owned by the user, oldest first.
func (r *AuthTokenRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*account.AuthToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, token, owner_id, created_at
		FROM auth_tokens
		WHERE owner_id = $1
		ORDER BY created_at
	`, ownerID.String())
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_LIST_FAILED").
			With("owner_id", ownerID.String()).
			Wrap(storeErr(err))
	}
	defer rows.Close()

	var tokens []*account.AuthToken
	for rows.Next() {
		var (
			idStr     string
			name      string
			value     string
			ownerStr  string
			createdAt time.Time
		)
		if err := rows.Scan(&idStr, &name, &value, &ownerStr, &createdAt); err != nil {
			return nil, oops.Code("AUTH_TOKEN_LIST_FAILED").
				With("operation", "scan token row").
				Wrap(err)
		}

		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("AUTH_TOKEN_CORRUPT_ID").With("id", idStr).Wrap(err)
		}
		owner, err := ulid.Parse(ownerStr)
		if err != nil {
			return nil, oops.Code("AUTH_TOKEN_CORRUPT_ID").With("owner_id", ownerStr).Wrap(err)
		}

		tokens = append(tokens, &account.AuthToken{
			ID:        id,
			Name:      name,
			Token:     value,
			OwnerID:   owner,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("AUTH_TOKEN_LIST_FAILED").
			With("operation", "iterate tokens").
			Wrap(storeErr(err))
	}

	return tokens, nil
}

// Delete removes an auth token.
func (r *AuthTokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM auth_tokens WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("AUTH_TOKEN_DELETE_FAILED").
			With("id", id.String()).
			Wrap(storeErr(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("AUTH_TOKEN_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}
