package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"time"

	"github.com/yourorg/todoservice/pkg/logger"
	"github.com/yourorg/todoservice/pkg/mcphttp"
	"github.com/yourorg/todoservice/pkg/model"
)

// healthCheckTimeout bounds the database ping performed by Health
const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler handles the service-level HTTP endpoints
type Handler struct {
	logger        logger.Logger
	mcpHTTPServer mcphttp.Server
	db            Pinger
}

// New creates a new handler with MCP support.
// db may be nil, in which case Health reports only process liveness.
func New(log logger.Logger, mcpHTTPServer mcphttp.Server, db Pinger) *Handler {
	return &Handler{
		logger:        log,
		mcpHTTPServer: mcpHTTPServer,
		db:            db,
	}
}

// Health returns a health check response
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil && !isNil(h.db) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Error("database health check failed", "error", err)
			response["status"] = "unhealthy"
			response["database"] = "unreachable"
			h.json(w, http.StatusServiceUnavailable, response)
			return
		}
		response["database"] = "ok"
	}

	h.json(w, http.StatusOK, response)
}

// ServiceInfo returns the welcome message and available endpoints
func (h *Handler) ServiceInfo(w http.ResponseWriter, r *http.Request) {
	// Only handle root path, not all unmatched paths
	if r.URL.Path != "/" {
		h.error(w, http.StatusNotFound, "Not found")
		return
	}

	h.json(w, http.StatusOK, model.NewServiceInfo())
}

// MCP handles MCP protocol requests over HTTP
func (h *Handler) MCP(w http.ResponseWriter, r *http.Request) {
	// Check for nil interface or interface with nil value
	if h.mcpHTTPServer == nil || isNil(h.mcpHTTPServer) {
		h.error(w, http.StatusInternalServerError, "MCP server not initialized")
		return
	}

	h.mcpHTTPServer.ServeHTTP(w, r)
}

// json sends a JSON response
func (h *Handler) json(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode error", "error", err)
	}
}

// error sends an error JSON response
func (h *Handler) error(w http.ResponseWriter, status int, message string) {
	h.json(w, status, map[string]string{"error": message})
}

// isNil checks if an interface contains a nil value (handles typed nil)
func isNil(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
