// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/quicktodo/internal/domain/model"
	"github.com/okian/quicktodo/pkg/logger"
)

// maxBodyBytes caps request bodies at 100 KiB.
const maxBodyBytes = 100 << 10

// Route names, also used as metric labels.
const (
	routeList    = "todos.list"
	routeGet     = "todos.get"
	routeCreate  = "todos.create"
	routeUpdate  = "todos.update"
	routeDelete  = "todos.delete"
	routeHealth  = "healthz"
	routeStats   = "stats"
	routeMetrics = "metrics"
)

// Dependencies bundles what both flavors' handlers need. A single service
// implementation satisfies it; only the configured flavor's routes are mounted.
type Dependencies interface {
	TaskDependencies
	RecordDependencies
}

// Server wires HTTP routes for the todo API.
type Server struct {
	flavor         string
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	tasksHandler   *TasksHandler
	recordsHandler *RecordsHandler
	logger         logger.Logger
}

// NewServer creates the API server for flavor.
func NewServer(flavor string, deps Dependencies, statsProvider StatsProvider) *Server {
	s := &Server{
		flavor:        flavor,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
	}
	switch flavor {
	case model.FlavorTasks:
		s.tasksHandler = NewTasksHandler(deps)
	case model.FlavorRecords:
		s.recordsHandler = NewRecordsHandler(deps)
	}
	return s
}

// Register attaches all HTTP routes and middleware to r.
func (s *Server) Register(ctx context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	r.Use(RequestIDMiddleware, MetricsMiddleware(s.logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", NewKind("api.route", ErrNotFound))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.healthHandler.HandleHealth).Name(routeHealth)
	r.Methods(http.MethodGet).Path("/metrics").Handler(s.healthHandler.MetricsHandler()).Name(routeMetrics)
	r.Methods(http.MethodGet).Path("/stats").HandlerFunc(s.statsHandler.HandleStats).Name(routeStats)

	switch {
	case s.tasksHandler != nil:
		s.tasksHandler.Register(r)
	case s.recordsHandler != nil:
		s.recordsHandler.Register(r)
	default:
		s.logger.Warn(ctx, "no todo routes mounted", logger.String("flavor", s.flavor))
	}
}

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// messageResponse acknowledges an operation that returns no record.
type messageResponse struct {
	Message string `json:"message"`
}

// listResponse wraps stored todos.
type listResponse[T any] struct {
	Todos []T `json:"todos"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched,
// matching a body parser that hands handlers an empty object.
// Numbers decode as json.Number so they round-trip unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrPayloadTooLarge
		}
		return err
	}
	return nil
}

// writeDecodeError maps a decodeBody failure to a response.
func writeDecodeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrPayloadTooLarge) {
		err = NewKind(op, ErrPayloadTooLarge)
	} else {
		err = WrapKind(op, ErrBadRequest, err)
	}
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
