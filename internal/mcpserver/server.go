package mcpserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yourorg/todoservice/pkg/metrics"
	"github.com/yourorg/todoservice/pkg/model"
	"github.com/yourorg/todoservice/pkg/schema"
	"github.com/yourorg/todoservice/pkg/version"
)

// TodoService is the set of todo operations exposed as MCP tools
type TodoService interface {
	Create(ctx context.Context, req model.CreateTodoRequest) (*model.Todo, error)
	Get(ctx context.Context, id int64) (*model.Todo, error)
	List(ctx context.Context) ([]*model.Todo, error)
	Update(ctx context.Context, id int64, req model.UpdateTodoRequest) (*model.Todo, error)
	Delete(ctx context.Context, id int64) (*model.DeleteResponse, error)
	Stats(ctx context.Context) (model.Stats, error)
}

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// toolDef describes one registered tool. Tools with a schema advertise
// the same document the validator enforces.
type toolDef struct {
	name        string
	description string
	schema      string
	handler     toolHandler
}

// NewServer creates and configures a new MCP server with the todo tools.
// m may be nil, in which case tool calls are not measured.
func NewServer(log *slog.Logger, m *metrics.Metrics, svc TodoService, validator *schema.Validator) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		version.ServiceName,
		version.Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	t := &todoTools{svc: svc, validator: validator, log: log}

	defs := []toolDef{
		{
			name:        "list_todos",
			description: "List all todo items in creation order",
			handler:     t.handleListTodos,
		},
		{
			name:        "get_todo",
			description: "Get a single todo item by ID",
			schema:      schema.TodoID,
			handler:     t.handleGetTodo,
		},
		{
			name:        "create_todo",
			description: "Create a new todo item. The title is required; completed defaults to false",
			schema:      schema.CreateTodo,
			handler:     t.handleCreateTodo,
		},
		{
			name:        "update_todo",
			description: "Update an existing todo item. Only the fields provided are changed",
			schema:      schema.UpdateTodo,
			handler:     t.handleUpdateTodo,
		},
		{
			name:        "delete_todo",
			description: "Delete a todo item by ID",
			schema:      schema.TodoID,
			handler:     t.handleDeleteTodo,
		},
		{
			name:        "get_stats",
			description: "Get todo statistics: total, completed, pending and completion rate",
			handler:     t.handleGetStats,
		},
	}

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		mcpServer.AddTool(newTool(def, validator), server.ToolHandlerFunc(wrapWithMetrics(def.name, m, def.handler)))
		names = append(names, def.name)
	}

	log.Info("MCP server initialized",
		"name", version.ServiceName,
		"version", version.Version,
		"tools", names,
	)

	return mcpServer
}

func newTool(def toolDef, validator *schema.Validator) mcp.Tool {
	if def.schema != "" {
		if raw, ok := validator.Raw(def.schema); ok {
			return mcp.NewToolWithRawSchema(def.name, def.description, raw)
		}
	}
	return mcp.NewTool(def.name, mcp.WithDescription(def.description))
}

// wrapWithMetrics wraps a tool handler with metrics tracking
func wrapWithMetrics(toolName string, m *metrics.Metrics, handler toolHandler) toolHandler {
	if m == nil {
		return handler
	}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		m.MCPToolCallsInFlight.Inc()
		defer m.MCPToolCallsInFlight.Dec()

		result, err := handler(ctx, request)

		status := "success"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		m.MCPToolCallsTotal.WithLabelValues(toolName, status).Inc()
		m.MCPToolCallDuration.WithLabelValues(toolName).Observe(time.Since(start).Seconds())

		return result, err
	}
}
