package repository

import "github.com/okian/quicktodo/internal/domain/model"

// TaskOption applies a configuration option to a TaskList.
type TaskOption func(*TaskList)

// WithSeed replaces the initial tasks. A nil slice starts the list empty.
func WithSeed(tasks []model.Task) TaskOption {
	return func(l *TaskList) {
		l.tasks = append([]model.Task(nil), tasks...)
	}
}
