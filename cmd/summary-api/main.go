package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/asc0ltato/summary-api/internal/config"
	"github.com/asc0ltato/summary-api/internal/handlers"
	"github.com/asc0ltato/summary-api/internal/logging"
	"github.com/asc0ltato/summary-api/internal/middleware"
	"github.com/asc0ltato/summary-api/internal/server"
	"github.com/asc0ltato/summary-api/internal/service"
	"github.com/asc0ltato/summary-api/internal/stream"
	"github.com/asc0ltato/summary-api/internal/upstream"
	"github.com/asc0ltato/summary-api/pkg/tokens"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	addr := flag.String("addr", "", "override listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service(handlers.ServiceName))
	logging.SetDefault(logger)

	slog.Info("Starting summary API",
		slog.Int("port", cfg.Server.Port),
		slog.String("env", cfg.Env),
		slog.String("main_api_url", cfg.MainAPI.BaseURL),
	)
	if cfg.JWT.Secret == "" {
		slog.Warn("JWT secret not configured; authenticated calls to the main api will fail")
	}

	tokenManager := tokens.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		handlers.ServiceName,
		logger.Logger,
	)
	apiClient := upstream.NewClient(cfg.MainAPI.BaseURL, tokenManager, logger.Logger)

	cache := stream.NewCache()
	streamCfg := stream.DefaultConfig(cfg.MainAPI.BaseURL)
	if cfg.Stream.ReconnectWait > 0 {
		streamCfg.ReconnectWait = cfg.Stream.ReconnectWait
	}
	streamClient, err := stream.NewClient(streamCfg, cache, logger.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize event stream client: %v", err)
	}
	defer streamClient.Close()

	svc := service.NewSummaryService(apiClient, streamClient, logger)
	h := handlers.New(svc, logger)

	cors := middleware.CORSConfig{
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if cfg.IsDevelopment() {
		cors.AllowedOrigins = middleware.DevelopmentOrigins()
	}

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	if *addr != "" {
		listenAddr = *addr
	}

	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      server.NewRouter(h, cors),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("summary API listening", slog.String("addr", listenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", logging.Error(err))
	}
}
