package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"autonomo/internal/config"
	"autonomo/internal/db"
	"autonomo/internal/fx"
	"autonomo/internal/logging"
	"autonomo/internal/server"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	dbConn, err := db.ConnectAndMigrate(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if *migrateOnlyFlag {
		log.Info().Msg("migrations completed")
		return
	}
	if *seedOnlyFlag {
		db.Seed(dbConn)
		log.Info().Msg("seeding completed")
		return
	}

	fxc := fx.NewClient()
	handler := server.New(dbConn, fxc)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
}
