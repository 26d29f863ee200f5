package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/anonto42/nano-midea/feedengine/internal/router"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
	"github.com/anonto42/nano-midea/feedengine/pkg/firebase"
	"github.com/anonto42/nano-midea/feedengine/pkg/logging"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize databases")
	}
	defer db.CloseDB()

	store, err := router.SetupStore(ctx, cfg.Database, db.Postgres, db.Mongo)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to set up store")
	}

	// Firebase is optional; without it only local tokens are accepted.
	var verifier middleware.IDTokenVerifier
	if cfg.Auth.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.Auth.FirebaseCredentialsPath)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize Firebase")
		}
		verifier = firebaseApp.AuthClient
	}

	e := echo.New()
	e.HideBanner = true
	config.SetupMiddleware(e)
	router.SetupRoutes(e, cfg, store, verifier)

	metricsServer := router.NewMetricsServer()
	go func() {
		if err := metricsServer.Start(":" + cfg.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	go func() {
		logging.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Metrics server shutdown failed")
	}
	logging.Info().Msg("Server stopped")
}
