package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/maxpert/pubcfg/api"
	"github.com/maxpert/pubcfg/cfg"
	"github.com/maxpert/pubcfg/db"
	"github.com/maxpert/pubcfg/telemetry"
)

func main() {
	flag.Parse()

	// Load configuration
	if err := cfg.Load(*cfg.ConfigPathFlag); err != nil {
		panic(err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Setup logging
	var writer io.Writer = zerolog.NewConsoleWriter()
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stdout
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}

	log.Info().Msg("Publisher configuration service")
	log.Debug().Msg("Initializing telemetry")
	telemetry.InitializeTelemetry()

	// Open the database and bootstrap schema
	store, err := db.NewStore(cfg.Config.SQLite.Path, cfg.Config.SQLite.BusyTimeoutMS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
		return
	}
	defer store.Close()

	audits := db.NewAuditLogStore(store)
	publishers := db.NewPublisherStore(store, audits, cfg.Config.ChangedBy)

	if count, err := publishers.Count(); err == nil {
		telemetry.PublishersTotal.Set(float64(count))
	}

	// Wire up HTTP routes
	mux := http.NewServeMux()
	handlers := api.NewHandlers(publishers, audits)
	api.RegisterRoutes(mux, handlers, cfg.Config.HTTP.PublicDir, cfg.Config.HTTP.EnableCORS)

	addr := fmt.Sprintf("%s:%d", cfg.Config.HTTP.BindAddress, cfg.Config.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("db", cfg.Config.SQLite.Path).
			Msg("Server is operational")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	if cfg.Config.Prometheus.Enabled {
		go serveMetrics()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown failed")
	}
}

// serveMetrics exposes /metrics on the dedicated Prometheus listener
func serveMetrics() {
	handler := telemetry.GetMetricsHandler()
	if handler == nil {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	addr := fmt.Sprintf("%s:%d", cfg.Config.Prometheus.Address, cfg.Config.Prometheus.Port)
	log.Info().Str("addr", addr).Msg("Metrics listener started")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn().Err(err).Msg("Metrics listener failed")
	}
}
