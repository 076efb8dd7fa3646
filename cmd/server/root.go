package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleservice/backend/config"
	httpDelivery "github.com/cleservice/backend/internal/delivery/http"
	"github.com/cleservice/backend/internal/domain"
	"github.com/cleservice/backend/internal/infrastructure/cache"
	"github.com/cleservice/backend/internal/infrastructure/realtime"
	"github.com/cleservice/backend/internal/infrastructure/sqlite"
	"github.com/cleservice/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "Key duplication catalog and order backend",
		Long: `Serves the key catalog with fuzzy name lookup and accepts key duplication orders.

Without a subcommand the HTTP server is started.`,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	})
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newMatchCmd())
	return root
}

// openDatabase loads configuration and opens the migrated database
func openDatabase(ctx context.Context) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	db, err := sqlite.OpenAndMigrate(ctx, cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// newResolver builds the catalog resolver, fronted by the listing cache when enabled
func newResolver(cfg *config.Config, store domain.CatalogReader) *usecase.CatalogResolver {
	var listingCache domain.CacheRepository
	if cfg.Cache.Enabled {
		listingCache = cache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		log.Printf("Cache: ttl=%s, max_entries=%d", cfg.Cache.TTL, cfg.Cache.MaxEntries)
	} else {
		log.Printf("Cache: disabled")
	}

	return usecase.NewCatalogResolver(store, listingCache, usecase.ResolverConfig{
		CacheTTL:           cfg.Cache.TTL,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Printf("Starting cleservice backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Database: %s", cfg.Database.Path)

	// Initialize infrastructure dependencies
	catalogStore := sqlite.NewCatalogStore(db)
	orderStore := sqlite.NewOrderStore(db)

	hub := realtime.NewHub(httpDelivery.OriginMatcher(cfg.Server.AllowedOrigins))
	go hub.Run(ctx)

	// Initialize usecase layer
	resolver := newResolver(cfg, catalogStore)
	catalogService := usecase.NewCatalogService(catalogStore, cfg.Matching.EnableDebugLogging)
	orderService := usecase.NewOrderService(orderStore, hub, cfg.Matching.EnableDebugLogging)

	log.Printf("Matching: default_limit=%d, max_limit=%d, debug=%v",
		cfg.Matching.DefaultLimit,
		cfg.Matching.MaxLimit,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(resolver, catalogService, orderService, httpDelivery.HandlerConfig{
		DefaultMatchLimit: cfg.Matching.DefaultLimit,
		MaxMatchLimit:     cfg.Matching.MaxLimit,
		MaxUploadBytes:    int64(cfg.Server.MaxUploadMB) << 20,
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, hub.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
