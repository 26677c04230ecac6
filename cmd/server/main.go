package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chatforge/chatforge/internal/ai"
	"github.com/chatforge/chatforge/internal/api"
	"github.com/chatforge/chatforge/internal/auth"
	"github.com/chatforge/chatforge/internal/config"
	"github.com/chatforge/chatforge/internal/core"
	"github.com/chatforge/chatforge/internal/store"
)

func main() {
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	dbStore, err := store.New(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	tokens := auth.NewManager(cfg.JWTSecret)
	completer := ai.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.TitleModel)
	estimator := ai.NewEstimator(ai.DefaultPricingTable())
	catalog := ai.NewCatalog(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.ModelCacheTTL)

	accountService := core.NewAccountService(dbStore, tokens)
	chatService := core.NewChatService(dbStore, completer, estimator, core.GoRunner{}, cfg.DefaultModel)
	workspaceService := core.NewWorkspaceService(dbStore)
	usageService := core.NewUsageService(dbStore)
	libraryService := core.NewLibraryService(dbStore)

	apiHandler := api.NewAPIHandler(accountService, chatService, workspaceService, usageService, libraryService, catalog, tokens)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: completion streams can legitimately run for
		// minutes; slow consumers are bounded by the provider side.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logrus.Infof("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Could not listen on %s: %v", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exiting gracefully")
}
