package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tx-resource-manager/config"
	httpHandler "tx-resource-manager/internal/adapter/http/handler"
	redisJournal "tx-resource-manager/internal/adapter/journal/redis"
	pgResource "tx-resource-manager/internal/adapter/resource/postgres"
	"tx-resource-manager/internal/core/ports"
	"tx-resource-manager/internal/manager"
	"tx-resource-manager/internal/pool"
	"tx-resource-manager/internal/service"
	"tx-resource-manager/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("propagation", cfg.Coordinator.PropagationMode).
		Bool("pooling", !cfg.Pool.DisablePooling).
		Msg("Starting transaction manager runtime")

	ctx := context.Background()

	// Initialize the PostgreSQL connection factory and pool
	factory := pgResource.NewFactory(cfg.Database, log)
	connPool, err := pool.New(ctx, cfg.Pool, factory, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize connection pool")
	}
	log.Info().Int("total", connPool.TotalSize()).Msg("Connection pool ready")

	checkers := []ports.HealthChecker{pgResource.NewHealthCheck(factory)}

	// Initialize the transaction manager, with the Redis journal when enabled
	var managerOpts []manager.Option
	if cfg.Journal.Enabled {
		rdb, err := redisJournal.NewClient(ctx, cfg.Journal, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		managerOpts = append(managerOpts, manager.WithJournal(redisJournal.NewJournal(rdb, cfg.Journal.Retention)))
		checkers = append(checkers, redisJournal.NewHealthCheck(rdb))
		log.Info().Msg("Redis journal enabled")
	}
	txManager := manager.New(cfg.Coordinator, log, managerOpts...)

	// Admin token service
	tokenSvc := service.NewJWTTokenService(cfg.Admin.JWTSecret, cfg.Admin.JWTExpiry, cfg.Admin.JWTIssuer)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		APIKey:         cfg.Admin.APIKey,
		TokenSvc:       tokenSvc,
		Pool:           connPool,
		Manager:        txManager,
		HealthCheckers: checkers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Admin API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Roll back in-flight transactions, then drain the pool.
	txManager.Shutdown(shutdownCtx)
	connPool.Shutdown(shutdownCtx)

	log.Info().Msg("Runtime exited")
}
