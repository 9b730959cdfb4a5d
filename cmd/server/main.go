package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/avezina/liveshop/internal/adapters/http"
	"github.com/avezina/liveshop/internal/app"
	"github.com/avezina/liveshop/internal/config"
	"github.com/avezina/liveshop/internal/core"
	"github.com/avezina/liveshop/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	orch := &app.Orchestrator{
		Registry: core.NewRegistry(),
	}

	// The registry stays authoritative for live membership even when
	// the store is unreachable; sync degrades to logging.
	var health router.HealthChecker
	if cfg.DatabaseURL != "" {
		db, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("database unavailable, persistence sync disabled")
		} else {
			defer db.Close()
			orch.Store = store.NewStreamSessions(db)
			health = db
		}
	} else {
		log.Warn().Msg("no database_url configured, persistence sync disabled")
	}

	r := router.SetupRouter(ctx, cfg, orch, health)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("liveshop signaling server started")
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
	}
	log.Info().Msg("Server exited gracefully")
}
