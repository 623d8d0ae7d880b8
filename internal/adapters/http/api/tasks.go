// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/quicktodo/internal/domain/model"
)

// deletedMessage acknowledges DELETE on the tasks flavor, matched or not.
const deletedMessage = "Todo deleted!"

// TaskDependencies defines what the string-keyed todo routes need.
type TaskDependencies interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, task any) (model.Task, error)
	DeleteTask(ctx context.Context, id string) (int, error)
}

// TasksHandler serves the string-keyed todo list.
type TasksHandler struct {
	deps TaskDependencies
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(deps TaskDependencies) *TasksHandler {
	return &TasksHandler{deps: deps}
}

// Register mounts the tasks routes on r.
func (h *TasksHandler) Register(r *mux.Router) {
	r.Methods(http.MethodGet).Path("/todos").HandlerFunc(h.HandleList).Name(routeList)
	r.Methods(http.MethodPost).Path("/todos").HandlerFunc(h.HandleCreate).Name(routeCreate)
	r.Methods(http.MethodDelete).Path("/todos/{id}").HandlerFunc(h.HandleDelete).Name(routeDelete)
}

// createTaskRequest is the body of POST /todos. The task value is echoed
// back as sent; a missing task is null.
type createTaskRequest struct {
	Task any `json:"task"`
}

// HandleList handles GET /todos.
func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_tasks"
	tasks, err := h.deps.ListTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse[model.Task]{Todos: tasks})
}

// HandleCreate handles POST /todos.
func (h *TasksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_task"
	var req createTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, op, err)
		return
	}
	created, err := h.deps.CreateTask(r.Context(), req.Task)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleDelete handles DELETE /todos/{id}. It succeeds whether or not a task matched.
func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_task"
	id := mux.Vars(r)["id"]
	if _, err := h.deps.DeleteTask(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: deletedMessage})
}
