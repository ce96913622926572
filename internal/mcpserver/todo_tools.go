package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yourorg/todoservice/pkg/model"
	"github.com/yourorg/todoservice/pkg/schema"
)

// toolError is the body of a failed tool call
type toolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type todoIDArgs struct {
	ID int64 `json:"id"`
}

type updateTodoArgs struct {
	ID int64 `json:"id"`
	model.UpdateTodoRequest
}

// todoTools adapts tool calls onto the todo service. Every failure is
// returned as an error result, never as a Go error.
type todoTools struct {
	svc       TodoService
	validator *schema.Validator
	log       *slog.Logger
}

// handleListTodos handles the list_todos tool
func (t *todoTools) handleListTodos(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	todos, err := t.svc.List(ctx)
	if err != nil {
		return t.failure("list_todos", err), nil
	}

	t.log.Info("list_todos executed", "count", len(todos))
	return t.success("list_todos", todos), nil
}

// handleGetTodo handles the get_todo tool
func (t *todoTools) handleGetTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args todoIDArgs
	if err := t.bind(request, schema.TodoID, &args); err != nil {
		return t.failure("get_todo", err), nil
	}

	todo, err := t.svc.Get(ctx, args.ID)
	if err != nil {
		return t.failure("get_todo", err, "id", args.ID), nil
	}

	return t.success("get_todo", todo), nil
}

// handleCreateTodo handles the create_todo tool
func (t *todoTools) handleCreateTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args model.CreateTodoRequest
	if err := t.bind(request, schema.CreateTodo, &args); err != nil {
		return t.failure("create_todo", err), nil
	}

	todo, err := t.svc.Create(ctx, args)
	if err != nil {
		return t.failure("create_todo", err), nil
	}

	t.log.Info("create_todo executed", "id", todo.ID)
	return t.success("create_todo", todo), nil
}

// handleUpdateTodo handles the update_todo tool
func (t *todoTools) handleUpdateTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args updateTodoArgs
	if err := t.bind(request, schema.UpdateTodo, &args); err != nil {
		return t.failure("update_todo", err), nil
	}

	todo, err := t.svc.Update(ctx, args.ID, args.UpdateTodoRequest)
	if err != nil {
		return t.failure("update_todo", err, "id", args.ID), nil
	}

	t.log.Info("update_todo executed", "id", todo.ID)
	return t.success("update_todo", todo), nil
}

// handleDeleteTodo handles the delete_todo tool
func (t *todoTools) handleDeleteTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args todoIDArgs
	if err := t.bind(request, schema.TodoID, &args); err != nil {
		return t.failure("delete_todo", err), nil
	}

	resp, err := t.svc.Delete(ctx, args.ID)
	if err != nil {
		return t.failure("delete_todo", err, "id", args.ID), nil
	}

	t.log.Info("delete_todo executed", "id", args.ID)
	return t.success("delete_todo", resp), nil
}

// handleGetStats handles the get_stats tool
func (t *todoTools) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.svc.Stats(ctx)
	if err != nil {
		return t.failure("get_stats", err), nil
	}

	return t.success("get_stats", stats), nil
}

// bind validates the call arguments against the named schema and decodes them into dst
func (t *todoTools) bind(request mcp.CallToolRequest, schemaName string, dst interface{}) error {
	args := request.GetArguments()
	if args == nil {
		args = map[string]any{}
	}

	if err := t.validator.ValidateValue(schemaName, args); err != nil {
		return err
	}

	data, err := json.Marshal(args)
	if err != nil {
		return model.NewValidationError("arguments are not valid JSON: %v", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return model.NewValidationError("invalid arguments: %v", err)
	}
	return nil
}

func (t *todoTools) success(tool string, v interface{}) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		t.log.Error(tool+": failed to marshal response", "error", err)
		return t.errorResult(model.KindInternal, "Failed to format response")
	}
	return mcp.NewToolResultText(string(data))
}

func (t *todoTools) failure(tool string, err error, args ...any) *mcp.CallToolResult {
	kind := model.ErrorKind(err)
	args = append(args, "kind", kind, "error", err)

	switch kind {
	case model.KindValidation, model.KindNotFound:
		t.log.Warn(tool+" failed", args...)
	default:
		t.log.Error(tool+" failed", args...)
	}

	return t.errorResult(kind, err.Error())
}

func (t *todoTools) errorResult(kind, message string) *mcp.CallToolResult {
	data, err := json.Marshal(toolError{Kind: kind, Message: message})
	if err != nil {
		return mcp.NewToolResultError(message)
	}
	return mcp.NewToolResultError(string(data))
}
