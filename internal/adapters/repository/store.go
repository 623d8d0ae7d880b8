// Package repository holds the in-memory todo stores.
package repository

import (
	"context"

	"github.com/okian/quicktodo/internal/domain/model"
)

// TaskStore provides access to the string-keyed todo list.
type TaskStore interface {
	// List returns every task in insertion order.
	List(ctx context.Context) []model.Task

	// Create appends a task with id len+1 and completed=false.
	Create(ctx context.Context, task any) model.Task

	// Delete removes every task whose id equals id and returns how many went.
	// Zero is not an error.
	Delete(ctx context.Context, id string) int

	// Count returns the number of stored tasks.
	Count(ctx context.Context) int
}

// RecordStore provides access to the integer-keyed todo list.
type RecordStore interface {
	// List returns every record in insertion order.
	List(ctx context.Context) []model.Record

	// Get returns the first record with id.
	// Returns ErrNotFound if none matches.
	Get(ctx context.Context, id int) (model.Record, error)

	// Create attaches id len+1 to fields and appends the result.
	Create(ctx context.Context, fields model.Record) model.Record

	// Update shallow-merges patch into the first record with id. An id in
	// patch moves the record. Returns ErrNotFound if none matches.
	Update(ctx context.Context, id int, patch model.Record) (model.Record, error)

	// Delete removes the first record with id and returns it.
	// Returns ErrNotFound if none matches.
	Delete(ctx context.Context, id int) (model.Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
