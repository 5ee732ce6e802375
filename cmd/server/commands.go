package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rehna-jp/Louer/internal/config"
	"github.com/rehna-jp/Louer/internal/db"
	clog "github.com/rehna-jp/Louer/internal/log"
	"github.com/rehna-jp/Louer/internal/mw"
	"github.com/rehna-jp/Louer/internal/server"
	"github.com/rehna-jp/Louer/internal/tracing"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// setup loads and validates config, initializes logging and opens the store.
func setup() (config.Config, *gorm.DB, error) {
	cfg := config.Load()
	if err := config.Validate(cfg); err != nil {
		return cfg, nil, fmt.Errorf("invalid config: %w", err)
	}
	clog.Init(cfg.Env, cfg.LogLevel)

	gdb, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return cfg, nil, fmt.Errorf("db connect: %w", err)
	}
	return cfg, gdb, nil
}

func closeDB(gdb *gorm.DB) {
	if err := db.Close(gdb); err != nil {
		log.Warn().Err(err).Msg("db close failed")
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gdb, err := setup()
			if err != nil {
				return err
			}
			defer closeDB(gdb)
			if err := db.Migrate(gdb); err != nil {
				return fmt.Errorf("db migrate: %w", err)
			}
			log.Info().Msg("schema up to date")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")

			cfg, gdb, err := setup()
			if err != nil {
				return err
			}
			defer closeDB(gdb)
			if !skipMigrate {
				if err := db.Migrate(gdb); err != nil {
					return fmt.Errorf("db migrate: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := tracing.Init(ctx, cfg)
			if err != nil {
				return fmt.Errorf("tracing init: %w", err)
			}

			limiter := mw.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
			defer limiter.Stop()

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           server.SetupRouter(cfg, gdb, limiter),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return run(ctx, srv, shutdownTracing)
		},
	}
	cmd.Flags().Bool("skip-migrate", false, "do not migrate the schema on startup")
	return cmd
}

func run(ctx context.Context, srv *http.Server, shutdownTracing tracing.ShutdownFunc) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	return serveErr
}
