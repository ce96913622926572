package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/todoservice/internal/handler"
	"github.com/yourorg/todoservice/internal/mcpserver"
	"github.com/yourorg/todoservice/internal/middleware"
	"github.com/yourorg/todoservice/internal/repository"
	"github.com/yourorg/todoservice/internal/service"
	"github.com/yourorg/todoservice/pkg/config"
	"github.com/yourorg/todoservice/pkg/db"
	"github.com/yourorg/todoservice/pkg/metrics"
	"github.com/yourorg/todoservice/pkg/schema"
	"github.com/yourorg/todoservice/pkg/version"
)

const dbStatsInterval = 10 * time.Second

// runHTTP serves the REST API, the MCP streamable HTTP endpoint and /metrics
// until SIGINT or SIGTERM.
func runHTTP(parent context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("configuration loaded",
		"port", cfg.Port,
		"log_level", cfg.LogLevel.String(),
		"allowed_origins", cfg.AllowedOrigins,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"max_body_bytes", cfg.MaxBodyBytes,
		"db_path", cfg.DBPath,
		"db_max_open_conns", cfg.DBMaxOpenConns,
		"db_max_idle_conns", cfg.DBMaxIdleConns,
		"db_cache_size_kb", cfg.DBCacheSize,
		"db_wal_mode", cfg.DBWalMode,
	)

	if cfg.HasWildcardOrigin() {
		logger.Warn("wildcard CORS (*) is enabled - this is INSECURE for production",
			"recommendation", "set explicit origins in ALLOWED_ORIGINS",
			"dev_only", "use ALLOW_CORS_WILDCARD_DEV=true only in development",
		)
	}

	database, err := db.Open(dbConfigFrom(cfg), logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer func() {
		if err := db.Close(database, logger); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	if err := db.Migrate(database, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		return err
	}

	metricsCollector := metrics.New(version.ServiceName)
	metricsCollector.SetBuildInfo(version.Version, runtime.Version())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reportDBStats(ctx, database, metricsCollector)

	srv := &http.Server{
		// net.JoinHostPort handles IPv6 hosts such as [::1]:8080
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           newRouter(cfg, logger, database, metricsCollector, prometheus.DefaultGatherer),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", srv.Addr,
			"endpoints", map[string]string{
				"todos":   "GET|POST /todos, GET|PUT|DELETE /todos/{id}",
				"stats":   "GET /todos/stats",
				"health":  "GET /health",
				"mcp":     "POST /mcp",
				"metrics": "GET /metrics",
			},
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logDBStats(logger, database)
	logger.Info("server stopped gracefully")
	return nil
}

// newRouter wires storage, service, both surfaces and the middleware chain
func newRouter(cfg *config.Config, logger *slog.Logger, database *sql.DB, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	validator := schema.MustNew()
	repo := repository.NewTodoRepository(database, m)
	svc := service.NewTodoService(repo, logger)

	mcpServer := mcpserver.NewServer(logger, m, svc, validator)
	mcpHTTPServer := server.NewStreamableHTTPServer(mcpServer)

	h := handler.New(logger, mcpHTTPServer, database)
	todos := handler.NewTodoHandler(svc, validator, logger, cfg.MaxBodyBytes)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /todos", todos.ListTodos)
	mux.HandleFunc("POST /todos", todos.CreateTodo)
	mux.HandleFunc("GET /todos/stats", todos.GetStats)
	mux.HandleFunc("GET /todos/{id}", todos.GetTodo)
	mux.HandleFunc("PUT /todos/{id}", todos.UpdateTodo)
	mux.HandleFunc("DELETE /todos/{id}", todos.DeleteTodo)

	mux.HandleFunc("GET /health", h.Health)

	// MCP endpoint (HTTP transport) - POST only for JSON-RPC
	mux.HandleFunc("POST /mcp", h.MCP)

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", h.ServiceInfo)

	// Prometheus comes first to capture every request, including recovered panics
	return middleware.Chain(
		mux,
		middleware.Prometheus(m, mux),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recover(logger),
		middleware.CORSWithOrigins(cfg.AllowedOrigins),
	)
}

func dbConfigFrom(cfg *config.Config) *db.Config {
	dbConfig := db.DefaultConfig()
	dbConfig.Path = cfg.DBPath
	dbConfig.MaxOpenConns = cfg.DBMaxOpenConns
	dbConfig.MaxIdleConns = cfg.DBMaxIdleConns
	dbConfig.CacheSize = -cfg.DBCacheSize // Convert KB to negative pages for SQLite
	dbConfig.WalMode = cfg.DBWalMode
	if !cfg.DBWalMode {
		dbConfig.JournalMode = "DELETE"
	}
	return dbConfig
}

// reportDBStats periodically publishes connection pool gauges until ctx is done
func reportDBStats(ctx context.Context, database *sql.DB, m *metrics.Metrics) {
	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := database.Stats()
			m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
			m.DBConnectionsIdle.Set(float64(stats.Idle))
		}
	}
}

func logDBStats(logger *slog.Logger, database *sql.DB) {
	stats := database.Stats()
	logger.Info("database statistics",
		"max_open_connections", stats.MaxOpenConnections,
		"open_connections", stats.OpenConnections,
		"in_use", stats.InUse,
		"idle", stats.Idle,
		"wait_count", stats.WaitCount,
		"wait_duration", stats.WaitDuration,
		"max_idle_closed", stats.MaxIdleClosed,
		"max_lifetime_closed", stats.MaxLifetimeClosed,
	)
}
