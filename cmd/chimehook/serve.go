// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/chimehook/chimehook/internal/logging"
	"github.com/chimehook/chimehook/internal/observability"
)

const (
	shutdownTimeout = 10 * time.Second
	readinessProbe  = 2 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return newServeCmdWithDeps(nil)
}

func newServeCmdWithDeps(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the account service ops endpoint",
		Long: `Connect to PostgreSQL and Redis and expose metrics and health
endpoints until interrupted. Readiness reflects live connectivity to both
stores.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, deps)
		},
	}
}

// storesReady reports whether both backing stores answer within the probe
// window. Used as the readiness check, so a dead database or cache flips
// /healthz/readiness without restarting the process.
func storesReady(pool *pgxpool.Pool, client *redis.Client) func() bool {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), readinessProbe)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			return false
		}
		return client.Ping(ctx).Err() == nil
	}
}

func runServe(cmd *cobra.Command, deps *Deps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logging.SetDefault("chimehook", cmd.Root().Version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := deps.poolFactory()(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	client := deps.redisFactory()(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}

	m, err := deps.migratorFactory()(cfg.Database.URL)
	if err != nil {
		return err
	}
	pending, err := m.PendingMigrations()
	_ = m.Close()
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		logger.Warn("schema has pending migrations; run 'chimehook migrate up'",
			"pending", len(pending))
	}

	obs := observability.NewServer(cfg.Metrics.Addr, storesReady(pool, client))

	errCh, err := obs.Start()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "account service started",
		"metrics_addr", obs.Addr(),
		"reset_enabled", cfg.Reset.Enabled)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return obs.Stop(shutdownCtx)
}
