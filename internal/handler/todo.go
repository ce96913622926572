package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/yourorg/todoservice/pkg/model"
	"github.com/yourorg/todoservice/pkg/schema"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured
const DefaultMaxBodyBytes = 1 << 20

// TodoService is the set of todo operations the REST surface exposes
type TodoService interface {
	Create(ctx context.Context, req model.CreateTodoRequest) (*model.Todo, error)
	Get(ctx context.Context, id int64) (*model.Todo, error)
	List(ctx context.Context) ([]*model.Todo, error)
	Update(ctx context.Context, id int64, req model.UpdateTodoRequest) (*model.Todo, error)
	Delete(ctx context.Context, id int64) (*model.DeleteResponse, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// TodoHandler handles todo-related HTTP requests
type TodoHandler struct {
	svc          TodoService
	validator    *schema.Validator
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewTodoHandler creates a new todo handler.
// maxBodyBytes <= 0 selects DefaultMaxBodyBytes.
func NewTodoHandler(svc TodoService, validator *schema.Validator, logger *slog.Logger, maxBodyBytes int64) *TodoHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &TodoHandler{
		svc:          svc,
		validator:    validator,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// ListTodos handles GET /todos
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.List(r.Context())
	if err != nil {
		h.handleError(w, err, "failed to list todos")
		return
	}

	h.json(w, todos, http.StatusOK)
}

// GetTodo handles GET /todos/{id}
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	todo, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "failed to get todo", "id", id)
		return
	}

	h.json(w, todo, http.StatusOK)
}

// CreateTodo handles POST /todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTodoRequest
	if !h.decode(w, r, schema.CreateTodo, &req) {
		return
	}

	todo, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, err, "failed to create todo")
		return
	}

	h.json(w, todo, http.StatusCreated)
}

// UpdateTodo handles PUT /todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req model.UpdateTodoRequest
	if !h.decode(w, r, schema.UpdateTodoBody, &req) {
		return
	}

	todo, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.handleError(w, err, "failed to update todo", "id", id)
		return
	}

	h.json(w, todo, http.StatusOK)
}

// DeleteTodo handles DELETE /todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "failed to delete todo", "id", id)
		return
	}

	h.json(w, resp, http.StatusOK)
}

// GetStats handles GET /todos/stats
func (h *TodoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.handleError(w, err, "failed to compute stats")
		return
	}

	h.json(w, stats, http.StatusOK)
}

// pathID parses the {id} path segment. A non-integer id is a validation failure.
func (h *TodoHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.logger.Warn("invalid todo id", "id", raw)
		h.errorJSON(w, "Todo id must be an integer", http.StatusUnprocessableEntity)
		return 0, false
	}
	return id, true
}

// decode reads the bounded body, checks it against the named schema and unmarshals it into dst
func (h *TodoHandler) decode(w http.ResponseWriter, r *http.Request, schemaName string, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.logger.Warn("request body too large", "limit", maxErr.Limit)
			h.errorJSON(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		h.logger.Warn("failed to read request body", "error", err)
		h.errorJSON(w, "Invalid request body", http.StatusBadRequest)
		return false
	}

	if !json.Valid(body) {
		h.logger.Warn("malformed JSON body")
		h.errorJSON(w, "Invalid request body", http.StatusBadRequest)
		return false
	}

	if err := h.validator.Validate(schemaName, body); err != nil {
		h.handleError(w, err, "request failed schema validation")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		h.errorJSON(w, "Invalid request body", http.StatusBadRequest)
		return false
	}

	return true
}

// handleError maps error kinds to HTTP statuses
func (h *TodoHandler) handleError(w http.ResponseWriter, err error, msg string, args ...any) {
	args = append(args, "error", err)

	switch {
	case errors.Is(err, model.ErrValidation):
		h.logger.Warn(msg, args...)
		h.errorJSON(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, model.ErrNotFound):
		h.logger.Debug(msg, args...)
		h.errorJSON(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error(msg, args...)
		h.errorJSON(w, "Internal server error", http.StatusInternalServerError)
	}
}

// json sends a JSON response
func (h *TodoHandler) json(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorJSON sends an error JSON response
func (h *TodoHandler) errorJSON(w http.ResponseWriter, message string, status int) {
	h.json(w, map[string]string{"error": message}, status)
}
