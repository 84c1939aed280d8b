package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hdc-platform/metadata-catalog/internal/eventbus"
	"github.com/hdc-platform/metadata-catalog/internal/httpapi"
	"github.com/hdc-platform/metadata-catalog/internal/permission"
	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/store/memory"
	"github.com/hdc-platform/metadata-catalog/internal/store/postgres"
	"github.com/hdc-platform/metadata-catalog/internal/telemetry"
)

var storeBackend string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the catalog HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&storeBackend, "store", "postgres", "storage backend: postgres or memory (memory is for local development only)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := settings.Logging.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	shutdownTelemetry, err := telemetry.Init(ctx, settings.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	st, closeStore, err := openStore(ctx, log)
	if err != nil {
		return err
	}
	defer closeStore()

	authority := permission.NewHTTPAuthority(settings.Authority.BaseURL, log)

	publisher := eventbus.NewPublisher(settings.EventBus.URL, log)
	defer publisher.Close()

	templates := httpapi.NewStoreTemplateResolver(st)

	server := httpapi.NewServer(settings.Server.Addr(), st, authority, publisher, templates, log)

	log.Info("starting catalogd", zap.String("addr", server.Addr()), zap.String("store", storeBackend))
	return server.Start(ctx)
}

// openStore builds the configured store.Store backend, plus a Close
// function the caller defers unconditionally.
func openStore(ctx context.Context, log *zap.Logger) (store.Store, func(), error) {
	switch storeBackend {
	case "memory":
		log.Warn("running with in-memory store: not for production use")
		return memory.New(memory.DefaultLimits()), func() {}, nil
	case "postgres", "":
		limits := postgres.Limits{
			MaxTags:                settings.Limits.MaxTags,
			MaxSystemTags:          settings.Limits.MaxSystemTags,
			MaxAttributeLength:     settings.Limits.MaxAttributeLength,
			MaxCollectionsPerOwner: settings.Limits.MaxCollectionsPerOwner,
		}
		db, err := postgres.Open(ctx, settings.Postgres.DSN(), settings.Postgres.MaxConns, log, limits)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", storeBackend)
	}
}
