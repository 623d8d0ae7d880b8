// Package model contains domain models passed between layers.
package model

// Task is a single entry of the string-keyed todo list.
// The identifier travels as "_id" on the wire.
type Task struct {
	ID        string `json:"_id"`       // decimal string, assigned on create
	Task      any    `json:"task"`      // any JSON value, null when absent
	Completed bool   `json:"completed"` // always false on create
}

// SeedTasks returns the tasks a fresh string-keyed list starts with.
func SeedTasks() []Task {
	return []Task{
		{ID: "1", Task: "First task", Completed: false},
		{ID: "2", Task: "Second task", Completed: true},
		{ID: "3", Task: "Third task", Completed: false},
	}
}
