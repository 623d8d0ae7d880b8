package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/quicktodo/internal/domain/model"
	"github.com/okian/quicktodo/pkg/metrics"
)

const recordFlavor = model.FlavorRecords

// RecordList is the in-memory, slice-backed RecordStore.
//
// Ids are len+1 at creation time. After a deletion two records can share
// an id; lookups then resolve to the earliest one.
type RecordList struct {
	mu      sync.Mutex
	records []model.Record
}

var _ RecordStore = (*RecordList)(nil)

// NewRecordList creates an empty list.
func NewRecordList(_ context.Context) *RecordList {
	metrics.UpdateStoreSize(recordFlavor, 0)
	return &RecordList{}
}

// List returns copies of all records.
func (l *RecordList) List(_ context.Context) []model.Record {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.Clone()
	}
	observe(recordFlavor, "list", start)
	return out
}

// Get returns a copy of the first record with id.
func (l *RecordList) Get(_ context.Context, id int) (model.Record, error) {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	defer observe(recordFlavor, "get", start)

	i := l.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return l.records[i].Clone(), nil
}

// Create stores fields under id len+1. Any id in fields is replaced.
func (l *RecordList) Create(_ context.Context, fields model.Record) model.Record {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	r := fields.WithID(len(l.records) + 1)
	l.records = append(l.records, r)
	metrics.UpdateStoreSize(recordFlavor, len(l.records))
	observe(recordFlavor, "create", start)
	return r.Clone()
}

// Update merges patch into the first record with id and returns the result.
func (l *RecordList) Update(_ context.Context, id int, patch model.Record) (model.Record, error) {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	defer observe(recordFlavor, "update", start)

	i := l.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	l.records[i] = l.records[i].Merge(patch)
	return l.records[i].Clone(), nil
}

// Delete removes the first record with id and returns it.
func (l *RecordList) Delete(_ context.Context, id int) (model.Record, error) {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	defer observe(recordFlavor, "delete", start)

	i := l.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	removed := l.records[i]
	l.records = slices.Delete(l.records, i, i+1)
	metrics.UpdateStoreSize(recordFlavor, len(l.records))
	return removed, nil
}

// Count returns the number of records.
func (l *RecordList) Count(_ context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// indexOf must be called with mu held.
func (l *RecordList) indexOf(id int) int {
	return slices.IndexFunc(l.records, func(r model.Record) bool {
		got, ok := r.ID()
		return ok && got == id
	})
}
