// Package service implements todo operations shared by the REST and MCP surfaces.
package service

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/yourorg/todoservice/internal/repository"
	"github.com/yourorg/todoservice/pkg/model"
)

// TodoService validates input and delegates to the todo store.
// It holds no mutable state and is safe for concurrent use.
type TodoService struct {
	repo   repository.TodoRepository
	logger *slog.Logger
}

// NewTodoService creates a new todo service
func NewTodoService(repo repository.TodoRepository, logger *slog.Logger) *TodoService {
	return &TodoService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates req and stores a new todo. Nothing is written when validation fails.
func (s *TodoService) Create(ctx context.Context, req model.CreateTodoRequest) (*model.Todo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	todo, err := s.repo.Insert(ctx, req.ToNewTodo())
	if err != nil {
		return nil, err
	}

	s.logger.Info("todo created", "id", todo.ID)
	return todo, nil
}

// Get returns the todo with the given id
func (s *TodoService) Get(ctx context.Context, id int64) (*model.Todo, error) {
	if id <= 0 {
		return nil, notFound(id)
	}
	todo, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	return todo, nil
}

// List returns every todo in id order
func (s *TodoService) List(ctx context.Context) ([]*model.Todo, error) {
	return s.repo.List(ctx)
}

// Update applies the present fields of req to the todo with the given id.
// An empty req is allowed and only refreshes updated_at.
func (s *TodoService) Update(ctx context.Context, id int64, req model.UpdateTodoRequest) (*model.Todo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, notFound(id)
	}

	todo, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, translate(err, id)
	}

	s.logger.Info("todo updated", "id", todo.ID)
	return todo, nil
}

// Delete removes the todo with the given id
func (s *TodoService) Delete(ctx context.Context, id int64) (*model.DeleteResponse, error) {
	if id <= 0 {
		return nil, notFound(id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, translate(err, id)
	}

	s.logger.Info("todo deleted", "id", id)
	return model.NewDeleteResponse(id), nil
}

// Stats summarizes the current todo list
func (s *TodoService) Stats(ctx context.Context) (model.Stats, error) {
	todos, err := s.repo.List(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	return Aggregate(todos), nil
}

func notFound(id int64) error {
	return model.NewNotFoundError("Todo with id %d not found", id)
}

// translate names the missing id in not-found errors; other errors pass through
func translate(err error, id int64) error {
	if errors.Is(err, model.ErrNotFound) {
		return notFound(id)
	}
	return err
}
