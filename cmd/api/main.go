package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"famorg/infrastructure/config"
	"famorg/infrastructure/di"
	"famorg/interfaces/http/rest"

	"go.uber.org/zap"
)

func main() {
	// Cancel on interrupt for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	container.Logger.Info("Knowledge base ready",
		zap.String("environment", cfg.Environment),
		zap.String("knowledgeDir", cfg.KnowledgeDir),
		zap.String("storeBackend", cfg.StoreBackend),
	)

	if err := rest.Serve(ctx, cfg.ServerAddress, container.Handler, container.Logger); err != nil {
		container.Logger.Error("Server failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}

	log.Println("Server stopped")
}
