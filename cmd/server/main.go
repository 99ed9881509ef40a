package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"browser-agent/internal/di"
	"browser-agent/internal/domain/entity"
	"browser-agent/internal/infrastructure/env"
	"browser-agent/internal/infrastructure/httpapi"
)

func main() {
	envService := env.NewEnvService()

	ctx := context.Background()

	sessionMode := entity.SessionShared
	if envService.Get("SESSION_MODE") == string(entity.SessionIsolated) {
		sessionMode = entity.SessionIsolated
	}

	container, err := di.NewContainer(ctx, di.Config{
		CatalogBaseURL:     envService.Get("CATALOG_BASE_URL"),
		CatalogToken:       envService.Get("CATALOG_TOKEN"),
		PersistenceBaseURL: envService.Get("PERSISTENCE_BASE_URL"),
		PersistenceToken:   envService.Get("PERSISTENCE_TOKEN"),
		BrowserHeadless:    envService.GetBool("BROWSER_HEADLESS", true),
		DefaultSessionMode: sessionMode,
	})
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	defer container.Close()

	server := httpapi.New(container.Orchestrator, container.Logger, container.Metrics)

	port := envService.Get("PORT")
	if port == "" {
		port = "3000"
	}

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	container.Logger.Info("server starting", "port", port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		container.Logger.Error("server stopped", "error", err.Error())
	}
}
