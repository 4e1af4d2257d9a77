// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chimehook/chimehook/internal/config"
)

const statusTimeout = 5 * time.Second

// BackendStatus holds the status of one backing store.
type BackendStatus struct {
	Component string `json:"component"`
	Reachable bool   `json:"reachable"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	return newStatusCmdWithDeps(nil)
}

func newStatusCmdWithDeps(deps *Deps) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backing-store connectivity and schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, deps, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, deps *Deps, jsonOutput bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	statuses := []BackendStatus{
		queryDatabaseStatus(deps, cfg.Database.URL),
		queryRedisStatus(ctx, deps, cfg.Redis),
	}

	if jsonOutput {
		out, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	for _, s := range statuses {
		state := "ok"
		if !s.Reachable {
			state = "unreachable"
		}
		cmd.Printf("%-10s %-12s %s%s\n", s.Component, state, s.Detail, s.Error)
	}
	return nil
}

func queryDatabaseStatus(deps *Deps, databaseURL string) BackendStatus {
	status := BackendStatus{Component: "postgres"}

	m, err := deps.migratorFactory()(databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.Reachable = true
	status.Detail = fmt.Sprintf("schema version %d", version)
	if dirty {
		status.Detail += " (dirty)"
	}

	pending, err := m.PendingMigrations()
	if err == nil && len(pending) > 0 {
		status.Detail += fmt.Sprintf(", %d pending", len(pending))
	}
	return status
}

func queryRedisStatus(ctx context.Context, deps *Deps, cfg config.RedisConfig) BackendStatus {
	status := BackendStatus{Component: "redis"}

	client := deps.redisFactory()(cfg.Addr, cfg.Password, cfg.DB)
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		status.Error = err.Error()
		return status
	}

	status.Reachable = true
	status.Detail = cfg.Addr
	return status
}
