package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/todoservice/pkg/model"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		flags []bool
		want  model.Stats
	}{
		{
			name: "empty",
			want: model.Stats{},
		},
		{
			name:  "all pending",
			flags: []bool{false, false},
			want:  model.Stats{Total: 2, Pending: 2},
		},
		{
			name:  "all completed",
			flags: []bool{true, true, true},
			want:  model.Stats{Total: 3, Completed: 3, CompletionRate: 1},
		},
		{
			name:  "mixed",
			flags: []bool{true, false, false, true},
			want:  model.Stats{Total: 4, Completed: 2, Pending: 2, CompletionRate: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todos := make([]*model.Todo, len(tt.flags))
			for i, completed := range tt.flags {
				todos[i] = &model.Todo{ID: int64(i + 1), Title: "t", Completed: completed}
			}

			got := Aggregate(todos)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Total, got.Completed+got.Pending)
			assert.GreaterOrEqual(t, got.CompletionRate, 0.0)
			assert.LessOrEqual(t, got.CompletionRate, 1.0)
		})
	}
}
