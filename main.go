package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/FACorreiaa/go-trip-companion/app/db"
	appLogger "github.com/FACorreiaa/go-trip-companion/app/logger"
	"github.com/FACorreiaa/go-trip-companion/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-companion/app/tracer"
	"github.com/FACorreiaa/go-trip-companion/config"
	"github.com/FACorreiaa/go-trip-companion/internal/api/notifications"
	"github.com/FACorreiaa/go-trip-companion/internal/container"
	"github.com/FACorreiaa/go-trip-companion/internal/router"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations before initializing the main pool
	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency Injection ---
	c, err := container.NewContainer(&cfg, logger)
	if err != nil {
		logger.Error("Failed to build dependency container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	if !c.WaitForDB(ctx) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Router Setup ---
	apiRouter := router.SetupRouter(c)

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", apiRouter)

	// --- HTTP Server Setup ---
	srv := &http.Server{
		Addr:         cfg.Server.HTTPPort,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Server.HTTPPort))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	// --- Briefing Scheduler ---
	go runBriefingScheduler(ctx, c.BriefingService, logger)

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// runBriefingScheduler ticks once an hour, on the hour, and fires the
// morning and evening briefing runs. Every active trip is checked each
// tick; the service itself matches trips against their local clock.
func runBriefingScheduler(ctx context.Context, briefings notifications.BriefingService, logger *slog.Logger) {
	// Align the first tick to the top of the next hour.
	now := time.Now()
	next := now.Truncate(time.Hour).Add(time.Hour)
	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	logger.Info("Briefing scheduler started", slog.Time("first_tick", next))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Briefing scheduler stopped")
			return
		case <-timer.C:
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			sent, failed := briefings.RunScheduledBriefings(runCtx, notifications.MorningBriefingHour, types.BriefingMorning)
			sentEve, failedEve := briefings.RunScheduledBriefings(runCtx, notifications.EveningBriefingHour, types.BriefingEvening)
			cancel()

			logger.Info("Hourly briefing tick complete",
				slog.Int("morning_sent", sent),
				slog.Int("morning_failed", failed),
				slog.Int("evening_sent", sentEve),
				slog.Int("evening_failed", failedEve))

			now := time.Now()
			next := now.Truncate(time.Hour).Add(time.Hour)
			timer.Reset(next.Sub(now))
		}
	}
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
