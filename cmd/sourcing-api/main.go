package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/sourcing-triads/internal/api"
	"github.com/maltedev/sourcing-triads/internal/cli"
	"github.com/maltedev/sourcing-triads/internal/config"
	"github.com/maltedev/sourcing-triads/internal/database"
	"github.com/maltedev/sourcing-triads/internal/events"
	"github.com/maltedev/sourcing-triads/internal/jobs"
	"github.com/maltedev/sourcing-triads/internal/logging"
	"github.com/maltedev/sourcing-triads/internal/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.Database.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	outbox := database.NewOutboxRepository(db, cfg.Redis.Stream)
	relay := database.NewRelay(outbox, redisClient, logger, database.RelayConfig{
		PollInterval: cfg.Jobs.OutboxInterval,
		BatchSize:    100,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("relay stopped with error", "error", err)
		}
	}()

	fetcher, err := cli.NewBackendClient(cfg, logger)
	if err != nil {
		return err
	}
	scraperService := scraper.NewService(fetcher, scraper.Options{
		MaxProducts: cfg.Sourcing.MaxProducts,
		Workers:     cfg.Sourcing.Workers,
	}, logger)

	jobManager := jobs.NewManager(
		database.NewJobRepository(db),
		db,
		scraperService,
		events.NewPublisher(outbox, logger),
		jobs.Config{
			PollInterval:      cfg.Jobs.PollInterval,
			DefaultMinReviews: cfg.Sourcing.MinReviews,
			DefaultMultiplier: cfg.Sourcing.Multiplier,
			RequireVerified:   cfg.Sourcing.RequireVerified,
			FXRate:            cfg.Sourcing.FXRate,
		},
		logger,
	)
	go jobManager.StartWorker(ctx)

	handlers := api.NewHandlers(jobManager, scraperService, outbox, scraper.EvalOptions{
		MinReviews:      cfg.Sourcing.MinReviews,
		RequireVerified: cfg.Sourcing.RequireVerified,
		Multiplier:      cfg.Sourcing.Multiplier,
		FXRate:          cfg.Sourcing.FXRate,
	}, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	handlers.Routes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
