// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chimehook/chimehook/internal/config"
	"github.com/chimehook/chimehook/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the ChimeHook CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chimehook",
		Short: "ChimeHook - account service for the notification relay",
		Long: `ChimeHook manages relay accounts: registration, password hashing
and upgrade, channel group ownership, and password-reset tokens.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// loadConfig reads the config file named by the global --config flag,
// falling back to the XDG config location when the flag is unset and a file
// exists there.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configFile
	if path == "" {
		if candidate := xdg.DefaultConfigFile(); fileExists(candidate) {
			path = candidate
		}
	}
	return config.Load(path, cmd.Flags())
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
