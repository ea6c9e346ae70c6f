package main

import (
	"context"
	"fmt"
	"os"

	"famorg/infrastructure/config"
	"famorg/infrastructure/di"

	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	dataDir      string
	knowledgeDir string
	storeBackend string
	logLevel     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "famctl",
		Short:         "famctl - manage and review the family knowledge base",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&knowledgeDir, "knowledge-dir", "", "knowledge root (overrides KNOWLEDGE_DIR)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "document store backend: file or sqlite")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	// Add subcommands
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(learnCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment config and applies command-line overrides
func loadConfig() (*config.Config, error) {
	if dataDir != "" {
		os.Setenv("DATA_DIR", dataDir)
	}
	if knowledgeDir != "" {
		os.Setenv("KNOWLEDGE_DIR", knowledgeDir)
	}
	if storeBackend != "" {
		os.Setenv("STORE_BACKEND", storeBackend)
	}
	if logLevel != "" {
		os.Setenv("LOG_LEVEL", logLevel)
	} else if os.Getenv("LOG_LEVEL") == "" {
		// Keep interactive output readable
		os.Setenv("LOG_LEVEL", "warn")
	}
	return config.LoadConfig()
}

// openContainer wires the application for a one-shot command. The tree
// watcher and metrics only make sense for the long-running server.
func openContainer(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.EnableTreeCache = false
	cfg.EnableMetrics = false
	cfg.EnableTracing = false

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return container, cleanup, nil
}
