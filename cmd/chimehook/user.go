// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/chimehook/chimehook/internal/account"
	acctpg "github.com/chimehook/chimehook/internal/account/postgres"
	acctredis "github.com/chimehook/chimehook/internal/account/redis"
	"github.com/chimehook/chimehook/internal/config"
	"github.com/chimehook/chimehook/internal/mailer"
)

// Default timeout for admin commands touching the database.
const defaultAdminTimeout = 30 * time.Second

// NewUserCmd creates the user subcommand and its verbs.
func NewUserCmd() *cobra.Command {
	return newUserCmdWithDeps(nil)
}

func newUserCmdWithDeps(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer relay accounts",
	}

	cmd.AddCommand(newUserCreateCmd(deps))
	cmd.AddCommand(newUserPasswdCmd(deps))
	cmd.AddCommand(newUserGroupCmd(deps))
	cmd.AddCommand(newUserResetCmd(deps))

	return cmd
}

// adminEnv bundles the service wiring shared by the admin verbs.
type adminEnv struct {
	svc      *account.Service
	registry *account.Registry
	resets   *account.ResetService
	close    func()
}

func buildAdminEnv(ctx context.Context, cfg config.Config, deps *Deps) (*adminEnv, error) {
	pool, err := deps.poolFactory()(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	client := deps.redisFactory()(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	users := acctpg.NewUserRepository(pool)
	groups := acctpg.NewGroupRepository(pool)
	tokens := acctpg.NewAuthTokenRepository(pool)
	resets := acctredis.NewResetTokenStore(client, "")

	svc := account.NewService(users, tokens, resets, account.NewArgon2idHasher(), slog.Default())
	registry := account.NewRegistry(groups)
	resetSvc := account.NewResetService(users, resets, mailer.NewLogMailer(slog.Default()), account.ResetConfig{
		Enabled:        cfg.Reset.Enabled,
		TTL:            cfg.Reset.TTL(),
		MaxOutstanding: cfg.Reset.MaxOutstanding,
		BaseURL:        cfg.Site.BaseURL,
		Sender:         cfg.Reset.Sender,
	})

	return &adminEnv{
		svc:      svc,
		registry: registry,
		resets:   resetSvc,
		close: func() {
			_ = client.Close()
			pool.Close()
		},
	}, nil
}

func newUserCreateCmd(deps *Deps) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultAdminTimeout)
			defer cancel()

			env, err := buildAdminEnv(ctx, cfg, deps)
			if err != nil {
				return err
			}
			defer env.close()

			user, err := env.svc.Register(ctx, args[0], email, password)
			if err != nil {
				return err
			}

			cmd.Printf("Created user %s (id %s)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email address")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserPasswdCmd(deps *Deps) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set an account's password",
		Long: `Set an account's password to a fresh modern hash. Outstanding
password-reset tokens for the account are revoked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultAdminTimeout)
			defer cancel()

			env, err := buildAdminEnv(ctx, cfg, deps)
			if err != nil {
				return err
			}
			defer env.close()

			user, err := env.svc.Lookup(ctx, args[0])
			if err != nil {
				return err
			}

			if err := env.svc.SetPassword(ctx, user.ID, password); err != nil {
				return err
			}

			cmd.Printf("Password updated for %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserResetCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Manage password-reset tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "request <username>",
		Short: "Issue a reset token and hand off the reset mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultAdminTimeout)
			defer cancel()

			env, err := buildAdminEnv(ctx, cfg, deps)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.resets.RequestReset(ctx, args[0]); err != nil {
				return err
			}

			cmd.Printf("Reset mail handed off for %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <username>",
		Short: "Revoke every outstanding reset token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultAdminTimeout)
			defer cancel()

			env, err := buildAdminEnv(ctx, cfg, deps)
			if err != nil {
				return err
			}
			defer env.close()

			user, err := env.svc.Lookup(ctx, args[0])
			if err != nil {
				return err
			}

			n, err := env.resets.CountOutstanding(ctx, user.ID)
			if err != nil {
				return err
			}
			if err := env.resets.RevokeAll(ctx, user.ID); err != nil {
				return err
			}

			cmd.Printf("Revoked %d outstanding token(s) for %s\n", n, user.Username)
			return nil
		},
	})

	return cmd
}

func newUserGroupCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage group ownership",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <username> <group>",
		Short: "Grant a user ownership of a group, creating it if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultAdminTimeout)
			defer cancel()

			env, err := buildAdminEnv(ctx, cfg, deps)
			if err != nil {
				return err
			}
			defer env.close()

			user, err := env.svc.Lookup(ctx, args[0])
			if err != nil {
				return err
			}

			if err := env.registry.AddOwnership(ctx, user, args[1]); err != nil {
				return err
			}

			cmd.Printf("%s now owns group %s\n", user.Username, account.NormalizeGroupName(args[1]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <username>",
		Short: "List the groups a user owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultAdminTimeout)
			defer cancel()

			env, err := buildAdminEnv(ctx, cfg, deps)
			if err != nil {
				return err
			}
			defer env.close()

			user, err := env.svc.Lookup(ctx, args[0])
			if err != nil {
				return err
			}

			groups, err := env.registry.ListGroups(ctx, user)
			if err != nil {
				return err
			}

			if len(groups) == 0 {
				cmd.Printf("%s owns no groups\n", user.Username)
				return nil
			}
			for _, g := range groups {
				cmd.Println(g.Name)
			}
			return nil
		},
	})

	return cmd
}
