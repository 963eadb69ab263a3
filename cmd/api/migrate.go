package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"tasklist/internal/adapter/database"
	"tasklist/internal/adapter/logger"
	"tasklist/internal/config"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Long: `Wait for the configured database, apply the schema migrations and
add the users.phone_number column if it is missing. Running it again is a no-op.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())

	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	log, err := logger.New(cfg.Log, cfg.ServiceName)

	if err != nil {
		return err
	}

	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	store, err := database.Connect(ctx, cfg.Database, nil, log)

	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}

	defer store.Close()

	cmd.Println("Running migrations...")

	if err := store.Migrate(ctx); err != nil {
		return oops.Code("MIGRATION_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}

	cmd.Println("Migrations completed successfully")

	return nil
}
