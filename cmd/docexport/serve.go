package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/docexport/internal/config"
	"github.com/gosuda/docexport/internal/notify"
	"github.com/gosuda/docexport/internal/server"
	"github.com/gosuda/docexport/internal/store/postgres"
	redisstore "github.com/gosuda/docexport/internal/store/redis"
	"github.com/gosuda/docexport/internal/wordexport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts := []wordexport.Option{wordexport.WithLogger(log.Logger)}
	var deps server.Deps

	// Audit log in PostgreSQL.
	if cfg.Database.Enabled() {
		if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
			return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}

		store, storeErr := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if storeErr != nil {
			return storeErr
		}
		defer store.Close()

		if migrateErr := store.Migrate(ctx); migrateErr != nil {
			return migrateErr
		}

		invocations := store.Invocations()
		opts = append(opts, wordexport.WithRecorder(invocations))
		deps.Invocations = invocations
	}

	// Event publishing and live stream over Redis.
	if cfg.Redis.Enabled() {
		bus, busErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if busErr != nil {
			return busErr
		}
		defer bus.Close()

		opts = append(opts, wordexport.WithRecorder(bus))
		deps.Counter = bus
		deps.Subscriber = bus
	}

	// Slack alerts.
	if cfg.Slack.Enabled() {
		opts = append(opts, wordexport.WithRecorder(notify.NewSlackAlerter(cfg.Slack.WebhookURL, cfg.Slack.AlertInterval)))
	}

	deps.Exporter = wordexport.New(opts...)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, deps)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
