package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Todo is the single persisted task record
type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTodo holds the caller-supplied fields of a todo about to be inserted.
// The store assigns the id and both timestamps.
type NewTodo struct {
	Title       string
	Description *string
	Completed   bool
}

// CreateTodoRequest represents the body of POST /todos and the create_todo tool arguments
type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// UpdateTodoRequest represents a partial update. Nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// DeleteResponse confirms a deletion
type DeleteResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// Field limits
const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 5000
)

// Validation errors
var (
	ErrEmptyTitle         = NewValidationError("title cannot be empty")
	ErrTitleTooLong       = NewValidationError("title must be %d characters or less", MaxTitleLength)
	ErrDescriptionTooLong = NewValidationError("description must be %d characters or less", MaxDescriptionLength)
	ErrInvalidID          = NewValidationError("todo id must be a positive integer")
)

// ValidateTitle validates a todo title
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)

	if title == "" {
		return ErrEmptyTitle
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}

	return nil
}

// ValidateDescription validates an optional todo description
func ValidateDescription(description *string) error {
	if description == nil {
		return nil
	}

	if utf8.RuneCountInString(strings.TrimSpace(*description)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}

	return nil
}

// Normalize trims surrounding whitespace from the text fields
func (r *CreateTodoRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = trimPtr(r.Description)
}

// Validate validates a CreateTodoRequest
func (r *CreateTodoRequest) Validate() error {
	if err := ValidateTitle(r.Title); err != nil {
		return err
	}
	return ValidateDescription(r.Description)
}

// ToNewTodo applies creation defaults
func (r *CreateTodoRequest) ToNewTodo() NewTodo {
	completed := false
	if r.Completed != nil {
		completed = *r.Completed
	}
	return NewTodo{
		Title:       r.Title,
		Description: r.Description,
		Completed:   completed,
	}
}

// Normalize trims surrounding whitespace from the text fields that are present
func (r *UpdateTodoRequest) Normalize() {
	r.Title = trimPtr(r.Title)
	r.Description = trimPtr(r.Description)
}

// Validate validates only the fields present in the update
func (r *UpdateTodoRequest) Validate() error {
	if r.Title != nil {
		if err := ValidateTitle(*r.Title); err != nil {
			return err
		}
	}
	return ValidateDescription(r.Description)
}

// IsEmpty reports whether the update carries no fields
func (r *UpdateTodoRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Completed == nil
}

// ApplyTo copies the present fields onto t. Timestamps are left to the store.
func (r *UpdateTodoRequest) ApplyTo(t *Todo) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		description := *r.Description
		t.Description = &description
	}
	if r.Completed != nil {
		t.Completed = *r.Completed
	}
}

// NewDeleteResponse builds the confirmation returned after a successful delete
func NewDeleteResponse(id int64) *DeleteResponse {
	return &DeleteResponse{
		Message: fmt.Sprintf("Todo %d deleted successfully", id),
		ID:      id,
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
