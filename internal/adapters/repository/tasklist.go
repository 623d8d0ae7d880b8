package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/okian/quicktodo/internal/domain/model"
	"github.com/okian/quicktodo/pkg/metrics"
)

const taskFlavor = model.FlavorTasks

// TaskList is the in-memory, slice-backed TaskStore.
//
// Ids are assigned as len+1, so a task created after a deletion may reuse
// an id that is still present. Delete removes every match.
type TaskList struct {
	mu    sync.Mutex
	tasks []model.Task
}

var _ TaskStore = (*TaskList)(nil)

// NewTaskList creates a list holding the seed tasks unless WithSeed says otherwise.
func NewTaskList(_ context.Context, opts ...TaskOption) *TaskList {
	l := &TaskList{tasks: model.SeedTasks()}
	for _, opt := range opts {
		opt(l)
	}
	metrics.UpdateStoreSize(taskFlavor, len(l.tasks))
	return l
}

// List returns a copy of all tasks.
func (l *TaskList) List(_ context.Context) []model.Task {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Task, len(l.tasks))
	copy(out, l.tasks)
	observe(taskFlavor, "list", start)
	return out
}

// Create appends a new, not completed task.
func (l *TaskList) Create(_ context.Context, task any) model.Task {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	t := model.Task{
		ID:        strconv.Itoa(len(l.tasks) + 1),
		Task:      task,
		Completed: false,
	}
	l.tasks = append(l.tasks, t)
	metrics.UpdateStoreSize(taskFlavor, len(l.tasks))
	observe(taskFlavor, "create", start)
	return t
}

// Delete filters out every task with the given id.
func (l *TaskList) Delete(_ context.Context, id string) int {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.tasks[:0]
	for _, t := range l.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	removed := len(l.tasks) - len(kept)
	// zero the tail so dropped tasks are not pinned by the backing array
	clear(l.tasks[len(kept):])
	l.tasks = kept
	metrics.UpdateStoreSize(taskFlavor, len(l.tasks))
	observe(taskFlavor, "delete", start)
	return removed
}

// Count returns the number of tasks.
func (l *TaskList) Count(_ context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func observe(flavor, op string, start time.Time) {
	metrics.RecordRepositoryLatency(flavor, op, float64(time.Since(start).Microseconds())/1000)
}
