package model

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestNewServiceInfo(t *testing.T) {
	info := NewServiceInfo()

	if info.Service != "todoservice" {
		t.Errorf("expected Service 'todoservice', got %s", info.Service)
	}

	if info.Version != "1.0.0" {
		t.Errorf("expected Version '1.0.0', got %s", info.Version)
	}

	if info.Message != "Welcome to the ToDo API!" {
		t.Errorf("unexpected Message %q", info.Message)
	}

	expectedEndpoints := map[string]string{
		"list":   "GET /todos",
		"create": "POST /todos",
		"stats":  "GET /todos/stats",
		"health": "GET /health",
		"mcp":    "POST /mcp",
	}

	for key, expectedValue := range expectedEndpoints {
		if value, ok := info.Endpoints[key]; !ok {
			t.Errorf("expected endpoint %s to exist", key)
		} else if value != expectedValue {
			t.Errorf("expected endpoint %s to be %s, got %s", key, expectedValue, value)
		}
	}

	if info.MCPInfo == "" {
		t.Error("expected MCPInfo to be set")
	}
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr error
	}{
		{name: "valid", title: "Buy milk"},
		{name: "surrounding whitespace", title: "  Buy milk  "},
		{name: "empty", title: "", wantErr: ErrEmptyTitle},
		{name: "whitespace only", title: " \t\n", wantErr: ErrEmptyTitle},
		{name: "max length", title: strings.Repeat("a", MaxTitleLength)},
		{name: "too long", title: strings.Repeat("a", MaxTitleLength+1), wantErr: ErrTitleTooLong},
		{name: "multibyte counted as runes", title: strings.Repeat("é", MaxTitleLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTitle() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTitle() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateTitle() error = %v is not marked as validation", err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription(nil); err != nil {
		t.Errorf("nil description error = %v", err)
	}
	if err := ValidateDescription(strPtr("")); err != nil {
		t.Errorf("empty description error = %v", err)
	}
	if err := ValidateDescription(strPtr(strings.Repeat("x", MaxDescriptionLength+1))); !errors.Is(err, ErrDescriptionTooLong) {
		t.Errorf("long description error = %v, want ErrDescriptionTooLong", err)
	}
}

func TestCreateTodoRequest(t *testing.T) {
	t.Run("defaults completed to false", func(t *testing.T) {
		req := CreateTodoRequest{Title: "a"}
		if req.ToNewTodo().Completed {
			t.Error("expected Completed to default to false")
		}
	})

	t.Run("keeps explicit completed", func(t *testing.T) {
		req := CreateTodoRequest{Title: "a", Completed: boolPtr(true)}
		if !req.ToNewTodo().Completed {
			t.Error("expected Completed to be true")
		}
	})

	t.Run("normalize trims", func(t *testing.T) {
		req := CreateTodoRequest{Title: "  a  ", Description: strPtr(" b ")}
		req.Normalize()
		if req.Title != "a" || *req.Description != "b" {
			t.Errorf("Normalize() = %q/%q", req.Title, *req.Description)
		}
	})
}

func TestUpdateTodoRequestApplyTo(t *testing.T) {
	base := func() *Todo {
		return &Todo{ID: 1, Title: "title", Description: strPtr("desc"), Completed: false}
	}

	tests := []struct {
		name   string
		update UpdateTodoRequest
		want   Todo
	}{
		{
			name:   "empty leaves everything",
			update: UpdateTodoRequest{},
			want:   Todo{ID: 1, Title: "title", Description: strPtr("desc")},
		},
		{
			name:   "completed only",
			update: UpdateTodoRequest{Completed: boolPtr(true)},
			want:   Todo{ID: 1, Title: "title", Description: strPtr("desc"), Completed: true},
		},
		{
			name:   "clear description with empty string",
			update: UpdateTodoRequest{Description: strPtr("")},
			want:   Todo{ID: 1, Title: "title", Description: strPtr("")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base()
			tt.update.ApplyTo(got)

			if got.Title != tt.want.Title || got.Completed != tt.want.Completed {
				t.Errorf("ApplyTo() = %+v, want %+v", got, tt.want)
			}
			if *got.Description != *tt.want.Description {
				t.Errorf("Description = %q, want %q", *got.Description, *tt.want.Description)
			}
		})
	}

	if !(&UpdateTodoRequest{}).IsEmpty() {
		t.Error("expected zero UpdateTodoRequest to be empty")
	}
}

func TestUpdateTodoRequestValidate(t *testing.T) {
	empty := UpdateTodoRequest{Title: strPtr("   ")}
	empty.Normalize()
	if err := empty.Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Validate() error = %v, want ErrEmptyTitle", err)
	}

	absent := UpdateTodoRequest{Completed: boolPtr(true)}
	if err := absent.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "validation", err: NewValidationError("bad %s", "input"), want: KindValidation},
		{name: "not found", err: NewNotFoundError("todo %d", 1), want: KindNotFound},
		{name: "storage", err: WrapStorageError(errors.New("disk"), "insert"), want: KindStorage},
		{name: "wrapped validation", err: errors.Wrap(ErrEmptyTitle, "create"), want: KindValidation},
		{name: "unknown", err: errors.New("boom"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind() = %s, want %s", got, tt.want)
			}
		})
	}

	if WrapStorageError(nil, "noop") != nil {
		t.Error("WrapStorageError(nil) should be nil")
	}
}

func TestNewDeleteResponse(t *testing.T) {
	resp := NewDeleteResponse(7)
	if resp.ID != 7 {
		t.Errorf("ID = %d, want 7", resp.ID)
	}
	if resp.Message != "Todo 7 deleted successfully" {
		t.Errorf("Message = %q", resp.Message)
	}
}
