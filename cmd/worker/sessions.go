package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/efren319/GovFunds/config"
	"github.com/efren319/GovFunds/internal/auth"
	"github.com/efren319/GovFunds/internal/bootstrap"
)

func revokeSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <username>",
		Short: "Sign an admin out of every browser (Redis sessions only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			client, err := bootstrap.OpenRedis(cmd.Context(), bootstrap.RedisOptions{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			if client == nil {
				return fmt.Errorf("REDIS_ADDR is not set; in-memory sessions end when the server restarts")
			}
			defer client.Close()

			return revokeSessions(cmd.Context(), cmd.OutOrStdout(), auth.NewRedisSessionStore(client, cfg.Auth.SessionTTL), args[0])
		},
	}
}

func revokeSessions(ctx context.Context, out io.Writer, store *auth.RedisSessionStore, username string) error {
	n, err := store.DeleteUser(ctx, username)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "revoked %d session(s) for %s\n", n, username)
	return nil
}
