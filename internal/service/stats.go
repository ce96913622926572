package service

import "github.com/yourorg/todoservice/pkg/model"

// Aggregate computes summary counts over todos.
// completion_rate is completed/total, or 0 for an empty set.
func Aggregate(todos []*model.Todo) model.Stats {
	stats := model.Stats{Total: len(todos)}
	for _, todo := range todos {
		if todo.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}
	return stats
}
