package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/daktari-health/telecall/internal/adapters/http"
	"github.com/daktari-health/telecall/internal/call"
	"github.com/daktari-health/telecall/internal/config"
	"github.com/daktari-health/telecall/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:          "telecall-server",
		Short:        "Telehealth call-signaling server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return err
	}

	var appts store.AppointmentStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to database")
			return err
		}
		defer pool.Close()
		pg := store.NewPGStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Error().Err(err).Msg("failed to migrate appointments")
			return err
		}
		appts = pg
	} else {
		log.Warn().Msg("no database_url configured, using in-memory appointment store")
		appts = store.NewMemoryStore()
	}

	reg := call.NewRegistry()
	gate := call.NewGate()
	resolver := store.NewResolver(appts)
	coord := call.NewCoordinator(reg, gate, resolver, appts)

	r := router.SetupRouter(ctx, cfg, coord, reg)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("telecall server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
