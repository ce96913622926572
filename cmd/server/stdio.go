package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/yourorg/todoservice/internal/mcpserver"
	"github.com/yourorg/todoservice/internal/repository"
	"github.com/yourorg/todoservice/internal/service"
	"github.com/yourorg/todoservice/pkg/config"
	"github.com/yourorg/todoservice/pkg/db"
	"github.com/yourorg/todoservice/pkg/metrics"
	"github.com/yourorg/todoservice/pkg/schema"
	"github.com/yourorg/todoservice/pkg/version"
)

// runStdio serves the MCP tools over stdin/stdout, backed by the same store
// the HTTP mode would open for configFile.
func runStdio(configFile string) error {
	cfg, dbConfig, err := loadStdioConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return err
	}

	// stdout carries the protocol; logs go to stderr
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting MCP server in stdio mode", "db_path", dbConfig.Path)

	database, err := db.Open(dbConfig, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		return err
	}

	// Minimal metrics for database tracking; nothing scrapes them in stdio mode
	metricsCollector := metrics.New(version.ServiceName)

	repo := repository.NewTodoRepository(database, metricsCollector)
	svc := service.NewTodoService(repo, logger)
	mcpServer := mcpserver.NewServer(logger, metricsCollector, svc, schema.MustNew())

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("MCP stdio server error", "error", err)
		return err
	}
	return nil
}

// loadStdioConfig resolves the configuration without the CORS requirement and
// derives the database settings exactly as HTTP mode does
func loadStdioConfig(configFile string) (*config.Config, *db.Config, error) {
	cfg, err := config.LoadForStdio(configFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, dbConfigFrom(cfg), nil
}
