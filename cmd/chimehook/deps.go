// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chimehook/chimehook/internal/store"
)

// migrator wraps the methods commands use from store.Migrator.
type migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

// Deps contains injectable dependencies for commands. Nil fields use the
// default implementations.
type Deps struct {
	// MigratorFactory creates a schema migrator from a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (migrator, error)

	// PoolFactory opens a verified connection pool.
	// Default: store.Open
	PoolFactory func(ctx context.Context, databaseURL string) (*pgxpool.Pool, error)

	// RedisFactory creates a redis client for the reset-token store.
	// Default: redis.NewClient
	RedisFactory func(addr, password string, db int) *redis.Client
}

func (d *Deps) migratorFactory() func(string) (migrator, error) {
	if d != nil && d.MigratorFactory != nil {
		return d.MigratorFactory
	}
	return func(databaseURL string) (migrator, error) {
		return store.NewMigrator(databaseURL)
	}
}

func (d *Deps) poolFactory() func(context.Context, string) (*pgxpool.Pool, error) {
	if d != nil && d.PoolFactory != nil {
		return d.PoolFactory
	}
	return store.Open
}

func (d *Deps) redisFactory() func(string, string, int) *redis.Client {
	if d != nil && d.RedisFactory != nil {
		return d.RedisFactory
	}
	return func(addr, password string, db int) *redis.Client {
		return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	}
}
