// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

// Package postgres provides PostgreSQL implementations of account
// repositories.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chimehook/chimehook/internal/account"
)

// poolIface is the subset of pgxpool.Pool the repositories use. It matches
// pgxmock.PgxPoolIface so repository tests run without a database.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// storeErr maps low-level failures to the domain taxonomy: context timeouts
// and cancellations become ErrStoreUnavailable so callers can treat them as
// transient. Everything else passes through for the caller's oops wrapping.
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(account.ErrStoreUnavailable, err)
	}
	return err
}

// isUniqueViolation reports whether err is a unique-constraint violation,
// the store-level signal that decides registration and upsert races.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
