package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/yourorg/todoservice/pkg/metrics"
	"github.com/yourorg/todoservice/pkg/model"
)

// ErrTodoNotFound is returned when an id does not reference a live todo
var ErrTodoNotFound = errors.Mark(errors.New("todo not found"), model.ErrNotFound)

// TodoRepository defines the interface for todo data access.
// Every method is atomic from the caller's point of view.
type TodoRepository interface {
	Insert(ctx context.Context, todo model.NewTodo) (*model.Todo, error)
	Get(ctx context.Context, id int64) (*model.Todo, error)
	List(ctx context.Context) ([]*model.Todo, error)
	Update(ctx context.Context, id int64, update model.UpdateTodoRequest) (*model.Todo, error)
	Delete(ctx context.Context, id int64) error
}

// Option configures a sqliteTodoRepository
type Option func(*sqliteTodoRepository)

// WithClock overrides the time source used for created_at/updated_at
func WithClock(now func() time.Time) Option {
	return func(r *sqliteTodoRepository) {
		r.now = now
	}
}

// sqliteTodoRepository implements TodoRepository for SQLite
type sqliteTodoRepository struct {
	db      *sql.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewTodoRepository creates a new SQLite-backed todo repository.
// m may be nil, in which case no metrics are recorded.
func NewTodoRepository(db *sql.DB, m *metrics.Metrics, opts ...Option) TodoRepository {
	r := &sqliteTodoRepository{
		db:      db,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const selectColumns = `id, title, description, completed, created_at, updated_at`

// Insert stores a new todo and returns it with its id and timestamps
func (r *sqliteTodoRepository) Insert(ctx context.Context, todo model.NewTodo) (*model.Todo, error) {
	start := time.Now()
	operation := "insert"

	now := r.now()
	query := `
		INSERT INTO todos (title, description, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		todo.Title,
		nullString(todo.Description),
		todo.Completed,
		now,
		now,
	)
	if err != nil {
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "failed to insert todo")
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "failed to get insert id")
	}

	r.record(operation, "success", start)
	return &model.Todo{
		ID:          id,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Get retrieves a todo by id
func (r *sqliteTodoRepository) Get(ctx context.Context, id int64) (*model.Todo, error) {
	start := time.Now()
	operation := "get"

	query := `SELECT ` + selectColumns + ` FROM todos WHERE id = ?`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.record(operation, "not_found", start)
			return nil, ErrTodoNotFound
		}
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "failed to query todo")
	}

	r.record(operation, "success", start)
	return todo, nil
}

// List retrieves all todos in primary-key order
func (r *sqliteTodoRepository) List(ctx context.Context) ([]*model.Todo, error) {
	start := time.Now()
	operation := "list"

	query := `SELECT ` + selectColumns + ` FROM todos ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "failed to query todos")
	}
	defer rows.Close()

	todos := []*model.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			r.record(operation, "error", start)
			return nil, model.WrapStorageError(err, "failed to scan todo")
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "row iteration error")
	}

	r.record(operation, "success", start)
	return todos, nil
}

// Update applies the present fields of update to the todo and refreshes updated_at.
// The read and the write share one transaction, so concurrent writers to the same
// id serialize and the last commit wins.
func (r *sqliteTodoRepository) Update(ctx context.Context, id int64, update model.UpdateTodoRequest) (*model.Todo, error) {
	start := time.Now()
	operation := "update"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `SELECT ` + selectColumns + ` FROM todos WHERE id = ?`
	todo, err := scanTodo(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.record(operation, "not_found", start)
			return nil, ErrTodoNotFound
		}
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "failed to query todo")
	}

	update.ApplyTo(todo)
	todo.UpdatedAt = r.nextUpdatedAt(todo.UpdatedAt)

	_, err = tx.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, completed = ?, updated_at = ?
		WHERE id = ?
	`,
		todo.Title,
		nullString(todo.Description),
		todo.Completed,
		todo.UpdatedAt,
		id,
	)
	if err != nil {
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "failed to update todo")
	}

	if err := tx.Commit(); err != nil {
		r.record(operation, "error", start)
		return nil, model.WrapStorageError(err, "failed to commit update")
	}

	r.record(operation, "success", start)
	return todo, nil
}

// Delete removes a todo by id
func (r *sqliteTodoRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	operation := "delete"

	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		r.record(operation, "error", start)
		return model.WrapStorageError(err, "failed to delete todo")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.record(operation, "error", start)
		return model.WrapStorageError(err, "failed to get rows affected")
	}

	if rowsAffected == 0 {
		r.record(operation, "not_found", start)
		return ErrTodoNotFound
	}

	r.record(operation, "success", start)
	return nil
}

// nextUpdatedAt returns the current time, bumped past previous when the clock has not advanced
func (r *sqliteTodoRepository) nextUpdatedAt(previous time.Time) time.Time {
	now := r.now()
	if !now.After(previous) {
		now = previous.Add(time.Microsecond)
	}
	return now
}

// record observes query duration and outcome
func (r *sqliteTodoRepository) record(operation, status string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	r.metrics.DBQueriesTotal.WithLabelValues(operation, status).Inc()
	if status == "error" {
		r.metrics.DBErrorsTotal.WithLabelValues(operation).Inc()
	}
	if status == "success" && operation != "get" && operation != "list" {
		r.metrics.TodoMutationsTotal.WithLabelValues(operation).Inc()
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*model.Todo, error) {
	var (
		todo        model.Todo
		description sql.NullString
	)
	err := row.Scan(
		&todo.ID,
		&todo.Title,
		&description,
		&todo.Completed,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		todo.Description = &description.String
	}
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	return &todo, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
