package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/yourorg/todoservice/pkg/db"
	"github.com/yourorg/todoservice/pkg/model"
)

// LogCall represents a single captured log record
type LogCall struct {
	Msg   string
	Attrs map[string]any
}

// TestHandler is a slog.Handler that captures records for verification
type TestHandler struct {
	mu         sync.Mutex
	attrs      []slog.Attr
	parent     *TestHandler
	InfoCalls  []LogCall
	WarnCalls  []LogCall
	ErrorCalls []LogCall
}

// NewTestLogger returns a logger backed by a capturing handler
func NewTestLogger() (*slog.Logger, *TestHandler) {
	h := &TestHandler{}
	return slog.New(h), h
}

// NewDiscardLogger returns a logger that drops everything
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Enabled implements slog.Handler
func (h *TestHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *TestHandler) Handle(_ context.Context, r slog.Record) error {
	root := h.root()

	call := LogCall{Msg: r.Message, Attrs: make(map[string]any)}
	for _, a := range h.attrs {
		call.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		call.Attrs[a.Key] = a.Value.Any()
		return true
	})

	root.mu.Lock()
	defer root.mu.Unlock()
	switch {
	case r.Level >= slog.LevelError:
		root.ErrorCalls = append(root.ErrorCalls, call)
	case r.Level >= slog.LevelWarn:
		root.WarnCalls = append(root.WarnCalls, call)
	case r.Level >= slog.LevelInfo:
		root.InfoCalls = append(root.InfoCalls, call)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *TestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TestHandler{attrs: merged, parent: h.root()}
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *TestHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *TestHandler) root() *TestHandler {
	if h.parent != nil {
		return h.parent
	}
	return h
}

// AssertInfoCount verifies the number of Info calls
func (h *TestHandler) AssertInfoCount(t *testing.T, expected int) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.InfoCalls) != expected {
		t.Errorf("expected %d Info calls, got %d", expected, len(h.InfoCalls))
	}
}

// AssertErrorCount verifies the number of Error calls
func (h *TestHandler) AssertErrorCount(t *testing.T, expected int) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.ErrorCalls) != expected {
		t.Errorf("expected %d Error calls, got %d", expected, len(h.ErrorCalls))
	}
}

// OpenTestDB opens a migrated in-memory database that is closed with the test
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	logger := NewDiscardLogger()
	database, err := db.Open(db.MemoryConfig(), logger)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.Migrate(database, logger); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return database
}

// MockMCPServer is a test MCP HTTP server
type MockMCPServer struct {
	ServeHTTPFunc func(http.ResponseWriter, *http.Request)
}

// ServeHTTP implements http.Handler
func (m *MockMCPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		http.Error(w, "MockMCPServer is nil", http.StatusInternalServerError)
		return
	}

	if m.ServeHTTPFunc != nil {
		m.ServeHTTPFunc(w, r)
	} else {
		w.WriteHeader(http.StatusOK)
	}
}

// MockTodoRepository is a function-field mock of the todo store.
// CallCount reports every invocation so tests can assert the store was not touched.
type MockTodoRepository struct {
	InsertFunc func(ctx context.Context, todo model.NewTodo) (*model.Todo, error)
	GetFunc    func(ctx context.Context, id int64) (*model.Todo, error)
	ListFunc   func(ctx context.Context) ([]*model.Todo, error)
	UpdateFunc func(ctx context.Context, id int64, update model.UpdateTodoRequest) (*model.Todo, error)
	DeleteFunc func(ctx context.Context, id int64) error

	mu    sync.Mutex
	calls int
}

func (m *MockTodoRepository) called() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// Insert implements repository.TodoRepository
func (m *MockTodoRepository) Insert(ctx context.Context, todo model.NewTodo) (*model.Todo, error) {
	m.called()
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, todo)
	}
	return nil, model.WrapStorageError(io.ErrUnexpectedEOF, "InsertFunc not set")
}

// Get implements repository.TodoRepository
func (m *MockTodoRepository) Get(ctx context.Context, id int64) (*model.Todo, error) {
	m.called()
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, model.NewNotFoundError("Todo with id %d not found", id)
}

// List implements repository.TodoRepository
func (m *MockTodoRepository) List(ctx context.Context) ([]*model.Todo, error) {
	m.called()
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*model.Todo{}, nil
}

// Update implements repository.TodoRepository
func (m *MockTodoRepository) Update(ctx context.Context, id int64, update model.UpdateTodoRequest) (*model.Todo, error) {
	m.called()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, update)
	}
	return nil, model.NewNotFoundError("Todo with id %d not found", id)
}

// Delete implements repository.TodoRepository
func (m *MockTodoRepository) Delete(ctx context.Context, id int64) error {
	m.called()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return model.NewNotFoundError("Todo with id %d not found", id)
}

// CallCount returns the number of store calls made so far
func (m *MockTodoRepository) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
