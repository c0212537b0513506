package main

import (
	"alcyxob/workout-cards/internal/api"
	"alcyxob/workout-cards/internal/backend"
	"alcyxob/workout-cards/internal/config"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/service"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title Workout Cards API
// @version 1.0
// @description Stores per-user workout cards: blocks of exercises made of sets.
// @host localhost:8080
// @BasePath /
func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting workout server...", "backend", cfg.Storage.Backend)

	// --- Storage ---
	openCtx, cancelOpen := context.WithTimeout(context.Background(), time.Minute)
	repo, closeRepo, err := backend.Open(openCtx, cfg, log)
	cancelOpen()
	if err != nil {
		log.Fatal("Could not open storage backend", "backend", cfg.Storage.Backend, "error", err)
	}
	defer func() {
		log.Info("Closing storage backend...")
		if err := closeRepo(); err != nil {
			log.Error("Failed to close storage backend", "error", err)
		}
	}()

	// --- Services and routes ---
	workoutService := service.NewWorkoutService(repo, log)

	if strings.EqualFold(cfg.Log.Mode, "production") || strings.EqualFold(cfg.Log.Mode, "prod") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(log, cfg.CORS.AllowedOrigins, workoutService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", "signal", sig.String())
	case err := <-serverErr:
		log.Error("ListenAndServe failed", "error", err)
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exiting.")
}
