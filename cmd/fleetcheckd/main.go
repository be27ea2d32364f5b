package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"

	"fleetcheck-backend/config"
	"fleetcheck-backend/internal/api"
	"fleetcheck-backend/internal/checklist"
	"fleetcheck-backend/internal/db"
	"fleetcheck-backend/internal/settings"
	"fleetcheck-backend/internal/store"
	"fleetcheck-backend/internal/template"
)

func main() {
	logger := log.New(os.Stdout, "fleetcheck-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	loc, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		logger.Fatalf("invalid analytics timezone %q: %v", cfg.Analytics.Timezone, err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	settingsClient := settings.NewClient(&cfg.Settings)
	resolver := template.NewResolver(appStore, settingsClient)

	// One cache instance backs both the GET response middleware and the
	// lifecycle invalidation contract.
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	responseCache := cache.New(cacheTTL, 2*cacheTTL)

	checklistSvc := checklist.NewService(appStore, resolver, checklist.NewInvalidator(responseCache))

	handler := api.NewHandler(appStore, checklistSvc, loc)
	router := api.NewRouter(handler, responseCache, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
