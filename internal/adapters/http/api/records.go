// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/quicktodo/internal/domain/model"
)

// notFoundMessage is the error text for a missing record.
const notFoundMessage = "Todo not found"

// demoPayloadHeader marks GET /todos answers that ignore the stored records.
const demoPayloadHeader = "X-Demo-Payload"

var errNotObject = errors.New("request body must be a JSON object")

// RecordDependencies defines what the integer-keyed todo routes need.
type RecordDependencies interface {
	DemoListing(ctx context.Context) (model.DemoListing, bool)
	ListRecords(ctx context.Context) ([]model.Record, error)
	GetRecord(ctx context.Context, id int) (model.Record, error)
	CreateRecord(ctx context.Context, fields model.Record) (model.Record, error)
	UpdateRecord(ctx context.Context, id int, patch model.Record) (model.Record, error)
	DeleteRecord(ctx context.Context, id int) (model.Record, error)
}

// RecordsHandler serves the integer-keyed todo list.
type RecordsHandler struct {
	deps RecordDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// Register mounts the records routes on r.
func (h *RecordsHandler) Register(r *mux.Router) {
	r.Methods(http.MethodGet).Path("/todos").HandlerFunc(h.HandleList).Name(routeList)
	r.Methods(http.MethodGet).Path("/todos/{id}").HandlerFunc(h.HandleGet).Name(routeGet)
	r.Methods(http.MethodPost).Path("/todos").HandlerFunc(h.HandleCreate).Name(routeCreate)
	r.Methods(http.MethodPut).Path("/todos/{id}").HandlerFunc(h.HandleUpdate).Name(routeUpdate)
	r.Methods(http.MethodDelete).Path("/todos/{id}").HandlerFunc(h.HandleDelete).Name(routeDelete)
}

// HandleList handles GET /todos.
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_records"
	if payload, ok := h.deps.DemoListing(r.Context()); ok {
		w.Header().Set(demoPayloadHeader, "true")
		writeJSON(w, http.StatusOK, payload)
		return
	}
	records, err := h.deps.ListRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse[model.Record]{Todos: records})
}

// HandleGet handles GET /todos/{id}.
func (h *RecordsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_record"
	id, ok := recordID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	record, err := h.deps.GetRecord(r.Context(), id)
	if err != nil {
		writeRecordError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandleCreate handles POST /todos.
func (h *RecordsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_record"
	fields, err := decodeRecord(w, r)
	if err != nil {
		writeDecodeError(w, op, err)
		return
	}
	created, err := h.deps.CreateRecord(r.Context(), fields)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /todos/{id}.
func (h *RecordsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_record"
	id, ok := recordID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	patch, err := decodeRecord(w, r)
	if err != nil {
		writeDecodeError(w, op, err)
		return
	}
	updated, err := h.deps.UpdateRecord(r.Context(), id, patch)
	if err != nil {
		writeRecordError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /todos/{id}.
func (h *RecordsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_record"
	id, ok := recordID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	removed, err := h.deps.DeleteRecord(r.Context(), id)
	if err != nil {
		writeRecordError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// recordID parses the {id} path segment. A segment without a leading
// integer identifies no record.
func recordID(r *http.Request) (int, bool) {
	return parseLeadingInt(mux.Vars(r)["id"])
}

// decodeRecord reads a JSON object body. An empty body is an empty record.
func decodeRecord(w http.ResponseWriter, r *http.Request) (model.Record, error) {
	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return model.Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return model.Record(obj), nil
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: notFoundMessage, Code: "not_found"})
}

func writeRecordError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, model.ErrNotFound) {
		err = WrapKind(op, ErrNotFound, err)
	} else {
		err = WrapKind(op, ErrInternal, err)
	}
	status, code := statusFor(err)
	if status == http.StatusNotFound {
		writeNotFound(w)
		return
	}
	writeError(w, status, code, err)
}

// parseLeadingInt reads an optionally signed run of decimal digits after
// leading whitespace and ignores the rest, so "12abc" is 12 and "abc" is nothing.
func parseLeadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		d := int(s[i] - '0')
		if n > (maxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

const maxInt = int(^uint(0) >> 1)
