package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"gcghub.id/internal/auth"
	"gcghub.id/internal/config"
	"gcghub.id/internal/httpapi"
	"gcghub.id/internal/obs"
	"gcghub.id/internal/store"
)

var version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	obs.InitLogger(cfg.LogLevel, cfg.LogFormat)
	obs.Init()

	st, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer st.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := st.HealthCheck(pingCtx); err != nil {
		log.Warn().Err(err).Msg("database not reachable at startup")
	}
	cancelPing()

	tokens, err := auth.NewTokenService(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessWindow, cfg.RefreshWindow)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid token configuration")
	}
	hasher := auth.NewHasher(cfg.BcryptCost)

	api := httpapi.New(st, tokens, hasher, version,
		httpapi.WithCORSOrigins(cfg.CORSOrigins))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting gcg-document-hub API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info().Msg("stopped")
}
