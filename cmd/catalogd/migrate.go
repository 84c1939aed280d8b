package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hdc-platform/metadata-catalog/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply the postgres schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	log, err := settings.Logging.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	limits := postgres.Limits{
		MaxTags:                settings.Limits.MaxTags,
		MaxSystemTags:          settings.Limits.MaxSystemTags,
		MaxAttributeLength:     settings.Limits.MaxAttributeLength,
		MaxCollectionsPerOwner: settings.Limits.MaxCollectionsPerOwner,
	}
	db, err := postgres.Open(ctx, settings.Postgres.DSN(), settings.Postgres.MaxConns, log, limits)
	if err != nil {
		return fmt.Errorf("opening postgres store: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	log.Info("schema applied")
	return nil
}
