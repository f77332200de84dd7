package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wealthapp/backend/internal/app"
	"github.com/wealthapp/backend/internal/config"
	"github.com/wealthapp/backend/internal/database"
	"github.com/wealthapp/backend/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.Env)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if cfg.MigrateOnStart {
		if err := database.Migrate(db, log); err != nil {
			log.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	services := app.Build(cfg, db, log)

	router := app.Router(app.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	}, services, db)

	if err := services.Scheduler.Start(); err != nil {
		log.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	idle := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server")

		// Stop scheduler first
		services.StopScheduler(log)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", slog.String("error", err.Error()))
		}
		close(idle)
	}()

	log.Info("server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	<-idle
}
