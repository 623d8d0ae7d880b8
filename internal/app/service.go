// Package service provides the business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	repository "github.com/okian/quicktodo/internal/adapters/repository"
	"github.com/okian/quicktodo/internal/domain/model"
	"github.com/okian/quicktodo/pkg/logger"
	"github.com/okian/quicktodo/pkg/metrics"
)

// Operation outcomes used as metric labels.
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// Service implements the API dependencies of both todo server flavors.
// Only the configured flavor's store exists once started.
type Service struct {
	mu sync.RWMutex

	tasks   repository.TaskStore
	records repository.RecordStore

	// Configuration
	flavor      string
	seed        bool
	demoListing bool

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFlavor selects the server flavor: model.FlavorTasks or model.FlavorRecords.
func WithFlavor(flavor string) Option {
	return func(s *Service) {
		s.flavor = flavor
	}
}

// WithSeed controls whether the tasks flavor starts with its sample tasks.
func WithSeed(seed bool) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithDemoListing controls whether listing records returns the fixed demo payload.
func WithDemoListing(enabled bool) Option {
	return func(s *Service) {
		s.demoListing = enabled
	}
}

// WithTaskStore injects the tasks store instead of building one on Start.
func WithTaskStore(store repository.TaskStore) Option {
	return func(s *Service) {
		s.tasks = store
	}
}

// WithRecordStore injects the records store instead of building one on Start.
func WithRecordStore(store repository.RecordStore) Option {
	return func(s *Service) {
		s.records = store
	}
}

// New constructs a Service. By default it serves the records flavor with seeding and the demo listing on.
func New(opts ...Option) *Service {
	s := &Service{
		flavor:      model.FlavorRecords,
		seed:        true,
		demoListing: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the store for the configured flavor.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	switch s.flavor {
	case model.FlavorTasks:
		if s.tasks == nil {
			var opts []repository.TaskOption
			if !s.seed {
				opts = append(opts, repository.WithSeed(nil))
			}
			s.tasks = repository.NewTaskList(ctx, opts...)
		}
		s.records = nil
	case model.FlavorRecords:
		if s.records == nil {
			s.records = repository.NewRecordList(ctx)
		}
		s.tasks = nil
		if s.demoListing {
			s.logger.Warn(ctx, "GET /todos answers with a fixed demo payload, not the stored records; set demo_listing=false to list records")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFlavor, s.flavor)
	}

	s.started = true
	s.logger.Info(ctx, "todo service started",
		logger.String("flavor", s.flavor),
		logger.Bool("seed", s.seed),
		logger.Bool("demoListing", s.demoListing),
	)
	return nil
}

// Stop marks the service stopped. Stored todos are kept in memory so a
// restart within the same process sees them again.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "todo service stopped", logger.String("flavor", s.flavor))
}

// Flavor returns the configured server flavor.
func (s *Service) Flavor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flavor
}

func (s *Service) taskStore() (repository.TaskStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.started:
		return nil, ErrNotStarted
	case s.tasks == nil:
		return nil, ErrFlavorDisabled
	}
	return s.tasks, nil
}

func (s *Service) recordStore() (repository.RecordStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.started:
		return nil, ErrNotStarted
	case s.records == nil:
		return nil, ErrFlavorDisabled
	}
	return s.records, nil
}

// Tasks flavor.

// ListTasks returns every stored task.
func (s *Service) ListTasks(ctx context.Context) ([]model.Task, error) {
	store, err := s.taskStore()
	if err != nil {
		return nil, err
	}
	tasks := store.List(ctx)
	s.done(ctx, model.FlavorTasks, "list", nil, logger.Int("count", len(tasks)))
	return tasks, nil
}

// CreateTask appends a task carrying the given value unchanged.
func (s *Service) CreateTask(ctx context.Context, task any) (model.Task, error) {
	store, err := s.taskStore()
	if err != nil {
		return model.Task{}, err
	}
	created := store.Create(ctx, task)
	s.done(ctx, model.FlavorTasks, "create", nil, logger.String("id", created.ID))
	return created, nil
}

// DeleteTask removes every task with id and reports how many were removed.
// Removing nothing is not an error.
func (s *Service) DeleteTask(ctx context.Context, id string) (int, error) {
	store, err := s.taskStore()
	if err != nil {
		return 0, err
	}
	removed := store.Delete(ctx, id)
	s.done(ctx, model.FlavorTasks, "delete", nil, logger.String("id", id), logger.Int("removed", removed))
	return removed, nil
}

// Records flavor.

// DemoListing returns the fixed demo payload and whether listing should use it.
func (s *Service) DemoListing(_ context.Context) (model.DemoListing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.demoListing {
		return model.DemoListing{}, false
	}
	return model.NewDemoListing(), true
}

// ListRecords returns every stored record.
func (s *Service) ListRecords(ctx context.Context) ([]model.Record, error) {
	store, err := s.recordStore()
	if err != nil {
		return nil, err
	}
	records := store.List(ctx)
	s.done(ctx, model.FlavorRecords, "list", nil, logger.Int("count", len(records)))
	return records, nil
}

// GetRecord returns the record with id.
func (s *Service) GetRecord(ctx context.Context, id int) (model.Record, error) {
	store, err := s.recordStore()
	if err != nil {
		return nil, err
	}
	r, err := store.Get(ctx, id)
	s.done(ctx, model.FlavorRecords, "get", err, logger.Int("id", id))
	return r, err
}

// CreateRecord stores fields as a new record.
func (s *Service) CreateRecord(ctx context.Context, fields model.Record) (model.Record, error) {
	store, err := s.recordStore()
	if err != nil {
		return nil, err
	}
	created := store.Create(ctx, fields)
	id, _ := created.ID()
	s.done(ctx, model.FlavorRecords, "create", nil, logger.Int("id", id))
	return created, nil
}

// UpdateRecord shallow-merges patch into the record with id.
func (s *Service) UpdateRecord(ctx context.Context, id int, patch model.Record) (model.Record, error) {
	store, err := s.recordStore()
	if err != nil {
		return nil, err
	}
	r, err := store.Update(ctx, id, patch)
	s.done(ctx, model.FlavorRecords, "update", err, logger.Int("id", id), logger.Int("fields", len(patch)))
	return r, err
}

// DeleteRecord removes the record with id and returns it.
func (s *Service) DeleteRecord(ctx context.Context, id int) (model.Record, error) {
	store, err := s.recordStore()
	if err != nil {
		return nil, err
	}
	r, err := store.Delete(ctx, id)
	s.done(ctx, model.FlavorRecords, "delete", err, logger.Int("id", id))
	return r, err
}

// done records the outcome of one operation.
func (s *Service) done(ctx context.Context, flavor, op string, err error, fields ...logger.Field) {
	outcome := outcomeOK
	switch {
	case errors.Is(err, model.ErrNotFound):
		outcome = outcomeNotFound
	case err != nil:
		outcome = outcomeError
	}
	metrics.RecordTodoOperation(flavor, op, outcome)

	fields = append(fields, logger.String("op", op), logger.String("outcome", outcome))
	s.logger.Debug(ctx, "todo operation", fields...)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"flavor":      s.flavor,
		"demoListing": s.demoListing,
	}
	if !s.started {
		return stats
	}
	switch {
	case s.tasks != nil:
		stats["count"] = s.tasks.Count(ctx)
	case s.records != nil:
		stats["count"] = s.records.Count(ctx)
	}
	return stats
}
