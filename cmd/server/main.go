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

	router "github.com/dkeye/Parley/internal/adapters/http"
	"github.com/dkeye/Parley/internal/adapters/memlog"
	"github.com/dkeye/Parley/internal/adapters/pglog"
	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
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
		log.Error().Err(err).Msg("failed to load config")
	}

	var msgLog core.MessageLog
	var closeLog func()
	if cfg.DatabaseURL != "" {
		pgl, err := pglog.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect message log")
		}
		msgLog = pgl
		closeLog = pgl.Close
	} else {
		log.Warn().Msg("no database_url configured, messages will not survive restart")
		msgLog = memlog.New()
	}

	registry := core.NewRegistry()
	broadcast := app.NewRouter(registry, msgLog, app.DropPolicy{})

	r := router.SetupRouter(ctx, cfg, broadcast, msgLog)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Parley server started")
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
	if closeLog != nil {
		closeLog()
	}
	log.Info().Msg("Server exited gracefully")
}
