package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/config"
	"github.com/efren319/GovFunds/internal/bootstrap"
	"github.com/efren319/GovFunds/internal/logging"
	"github.com/efren319/GovFunds/internal/store"
)

const appName = "govfunds-worker"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "worker",
		Short:         "GovFunds maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		seedCmd(),
		exportCmd(),
		importCmd(),
		migrateCmd(),
		reportsCmd(),
		hashPasswordCmd(),
		revokeSessionsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				v := os.Getenv("APP_VERSION")
				if v == "" {
					v = "dev"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, v)
			},
		},
	)
	return cmd
}

// env is what every store-backed command needs.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *store.DB
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	db, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	_ = e.db.Close()
	_ = e.log.Sync()
}

// withEnv adapts a store-backed command body to cobra's RunE.
func withEnv(fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		return fn(cmd, args, e)
	}
}
