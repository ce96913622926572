package model

import (
	"github.com/yourorg/todoservice/pkg/version"
)

// Stats is the derived summary over all todos. It is never persisted.
type Stats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}

// ServiceInfo represents the service information response
type ServiceInfo struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
	MCPInfo   string            `json:"mcp_info"`
}

// NewServiceInfo creates a new ServiceInfo with default values
func NewServiceInfo() *ServiceInfo {
	return &ServiceInfo{
		Service: version.ServiceName,
		Version: version.Version,
		Message: "Welcome to the ToDo API!",
		Endpoints: map[string]string{
			"list":    "GET /todos",
			"get":     "GET /todos/{id}",
			"create":  "POST /todos",
			"update":  "PUT /todos/{id}",
			"delete":  "DELETE /todos/{id}",
			"stats":   "GET /todos/stats",
			"health":  "GET /health",
			"mcp":     "POST /mcp",
			"metrics": "GET /metrics",
		},
		MCPInfo: "Supports both stdio mode (--stdio flag) and HTTP transport (POST /mcp)",
	}
}
