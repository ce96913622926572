package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yourorg/todoservice/internal/repository"
	"github.com/yourorg/todoservice/internal/service"
	"github.com/yourorg/todoservice/internal/testutil"
	"github.com/yourorg/todoservice/pkg/model"
	"github.com/yourorg/todoservice/pkg/schema"
)

func newTestTools(t *testing.T) *todoTools {
	t.Helper()
	logger, _ := testutil.NewTestLogger()
	repo := repository.NewTodoRepository(testutil.OpenTestDB(t), nil)
	return &todoTools{
		svc:       service.NewTodoService(repo, logger),
		validator: schema.MustNew(),
		log:       logger,
	}
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func decodeToolError(t *testing.T, result *mcp.CallToolResult) toolError {
	t.Helper()
	if !result.IsError {
		t.Fatalf("expected error result, got %s", resultText(t, result))
	}
	var te toolError
	if err := json.Unmarshal([]byte(resultText(t, result)), &te); err != nil {
		t.Fatalf("failed to decode tool error: %v", err)
	}
	return te
}

func createTodo(t *testing.T, tools *todoTools, args map[string]interface{}) model.Todo {
	t.Helper()
	result, err := tools.handleCreateTodo(context.Background(), callRequest("create_todo", args))
	if err != nil {
		t.Fatalf("create_todo returned Go error: %v", err)
	}
	if result.IsError {
		t.Fatalf("create_todo failed: %s", resultText(t, result))
	}
	var todo model.Todo
	if err := json.Unmarshal([]byte(resultText(t, result)), &todo); err != nil {
		t.Fatalf("failed to decode todo: %v", err)
	}
	return todo
}

func TestHandleCreateTodo(t *testing.T) {
	tests := []struct {
		name      string
		arguments map[string]interface{}
		wantKind  string
	}{
		{
			name:      "title only",
			arguments: map[string]interface{}{"title": "Buy milk"},
		},
		{
			name: "all fields",
			arguments: map[string]interface{}{
				"title":       "Write report",
				"description": "Quarterly numbers",
				"completed":   true,
			},
		},
		{
			name:      "null description",
			arguments: map[string]interface{}{"title": "x", "description": nil},
		},
		{
			name:      "missing title",
			arguments: map[string]interface{}{},
			wantKind:  model.KindValidation,
		},
		{
			name:      "nil arguments",
			arguments: nil,
			wantKind:  model.KindValidation,
		},
		{
			name:      "empty title",
			arguments: map[string]interface{}{"title": ""},
			wantKind:  model.KindValidation,
		},
		{
			name:      "wrong completed type",
			arguments: map[string]interface{}{"title": "a", "completed": "yes"},
			wantKind:  model.KindValidation,
		},
		{
			name:      "unknown argument",
			arguments: map[string]interface{}{"title": "a", "priority": 3},
			wantKind:  model.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := newTestTools(t)

			result, err := tools.handleCreateTodo(context.Background(), callRequest("create_todo", tt.arguments))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}

			if tt.wantKind != "" {
				te := decodeToolError(t, result)
				if te.Kind != tt.wantKind {
					t.Errorf("kind = %s, want %s", te.Kind, tt.wantKind)
				}
				if te.Message == "" {
					t.Error("expected error message")
				}
				return
			}

			if result.IsError {
				t.Fatalf("unexpected error result: %s", resultText(t, result))
			}

			var todo model.Todo
			if err := json.Unmarshal([]byte(resultText(t, result)), &todo); err != nil {
				t.Fatalf("failed to decode todo: %v", err)
			}
			if todo.ID <= 0 {
				t.Errorf("ID = %d, want positive", todo.ID)
			}
			if todo.Title != tt.arguments["title"] {
				t.Errorf("Title = %q, want %q", todo.Title, tt.arguments["title"])
			}
			if completed, ok := tt.arguments["completed"].(bool); ok && todo.Completed != completed {
				t.Errorf("Completed = %v, want %v", todo.Completed, completed)
			}
		})
	}
}

func TestHandleUpdateTodo(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	todo := createTodo(t, tools, map[string]interface{}{"title": "Learn X", "description": "docs"})

	t.Run("partial update", func(t *testing.T) {
		// JSON numbers arrive as float64
		result, err := tools.handleUpdateTodo(ctx, callRequest("update_todo", map[string]interface{}{
			"id":        float64(todo.ID),
			"completed": true,
		}))
		if err != nil {
			t.Fatalf("unexpected Go error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected error result: %s", resultText(t, result))
		}

		var updated model.Todo
		if err := json.Unmarshal([]byte(resultText(t, result)), &updated); err != nil {
			t.Fatalf("failed to decode todo: %v", err)
		}
		if !updated.Completed {
			t.Error("Completed = false, want true")
		}
		if updated.Title != "Learn X" {
			t.Errorf("Title = %q, want unchanged", updated.Title)
		}
		if updated.Description == nil || *updated.Description != "docs" {
			t.Errorf("Description = %v, want unchanged", updated.Description)
		}
		if !updated.UpdatedAt.After(todo.UpdatedAt) {
			t.Errorf("UpdatedAt %v not after %v", updated.UpdatedAt, todo.UpdatedAt)
		}
	})

	errorTests := []struct {
		name     string
		args     map[string]interface{}
		wantKind string
	}{
		{name: "missing id", args: map[string]interface{}{"title": "x"}, wantKind: model.KindValidation},
		{name: "fractional id", args: map[string]interface{}{"id": 1.5}, wantKind: model.KindValidation},
		{name: "zero id", args: map[string]interface{}{"id": 0}, wantKind: model.KindValidation},
		{name: "empty title", args: map[string]interface{}{"id": todo.ID, "title": "  "}, wantKind: model.KindValidation},
		{name: "unknown id", args: map[string]interface{}{"id": 9999, "completed": true}, wantKind: model.KindNotFound},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tools.handleUpdateTodo(ctx, callRequest("update_todo", tt.args))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if te := decodeToolError(t, result); te.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s (%s)", te.Kind, tt.wantKind, te.Message)
			}
		})
	}
}

func TestHandleDeleteAndGetTodo(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	todo := createTodo(t, tools, map[string]interface{}{"title": "temporary"})
	idArgs := map[string]interface{}{"id": todo.ID}

	result, err := tools.handleGetTodo(ctx, callRequest("get_todo", idArgs))
	if err != nil || result.IsError {
		t.Fatalf("get_todo failed: %v %s", err, resultText(t, result))
	}

	result, err = tools.handleDeleteTodo(ctx, callRequest("delete_todo", idArgs))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if result.IsError {
		t.Fatalf("delete_todo failed: %s", resultText(t, result))
	}

	var resp model.DeleteResponse
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
		t.Fatalf("failed to decode delete response: %v", err)
	}
	if resp.ID != todo.ID || !strings.Contains(resp.Message, "deleted") {
		t.Errorf("unexpected delete response %+v", resp)
	}

	result, _ = tools.handleGetTodo(ctx, callRequest("get_todo", idArgs))
	if te := decodeToolError(t, result); te.Kind != model.KindNotFound {
		t.Errorf("get after delete kind = %s, want %s", te.Kind, model.KindNotFound)
	}

	result, _ = tools.handleDeleteTodo(ctx, callRequest("delete_todo", idArgs))
	if te := decodeToolError(t, result); te.Kind != model.KindNotFound {
		t.Errorf("second delete kind = %s, want %s", te.Kind, model.KindNotFound)
	}
}

func TestHandleListAndStats(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	result, err := tools.handleListTodos(ctx, callRequest("list_todos", nil))
	if err != nil || result.IsError {
		t.Fatalf("list_todos failed: %v", err)
	}
	if got := resultText(t, result); got != "[]" {
		t.Errorf("empty list = %s, want []", got)
	}

	result, _ = tools.handleGetStats(ctx, callRequest("get_stats", nil))
	var stats model.Stats
	if err := json.Unmarshal([]byte(resultText(t, result)), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats != (model.Stats{}) {
		t.Errorf("empty stats = %+v", stats)
	}

	createTodo(t, tools, map[string]interface{}{"title": "one", "completed": true})
	createTodo(t, tools, map[string]interface{}{"title": "two"})
	createTodo(t, tools, map[string]interface{}{"title": "three"})
	createTodo(t, tools, map[string]interface{}{"title": "four", "completed": true})

	result, _ = tools.handleListTodos(ctx, callRequest("list_todos", nil))
	var todos []model.Todo
	if err := json.Unmarshal([]byte(resultText(t, result)), &todos); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(todos) != 4 || todos[0].Title != "one" || todos[3].Title != "four" {
		t.Errorf("unexpected list %+v", todos)
	}

	result, _ = tools.handleGetStats(ctx, callRequest("get_stats", nil))
	if err := json.Unmarshal([]byte(resultText(t, result)), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	want := model.Stats{Total: 4, Completed: 2, Pending: 2, CompletionRate: 0.5}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestStorageFailureResult(t *testing.T) {
	logger, logs := testutil.NewTestLogger()
	repo := &testutil.MockTodoRepository{
		ListFunc: func(context.Context) ([]*model.Todo, error) {
			return nil, model.WrapStorageError(errors.New("disk I/O error"), "failed to query todos")
		},
	}
	tools := &todoTools{
		svc:       service.NewTodoService(repo, logger),
		validator: schema.MustNew(),
		log:       logger,
	}

	for _, handler := range []toolHandler{tools.handleListTodos, tools.handleGetStats} {
		result, err := handler(context.Background(), callRequest("", nil))
		if err != nil {
			t.Fatalf("storage failure crossed the transport as a Go error: %v", err)
		}
		if te := decodeToolError(t, result); te.Kind != model.KindStorage {
			t.Errorf("kind = %s, want %s", te.Kind, model.KindStorage)
		}
	}

	logs.AssertErrorCount(t, 2)
}
