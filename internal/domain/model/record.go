// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"math"
)

// IDField is the key under which a record carries its identifier.
const IDField = "id"

// Record is a schemaless todo of the integer-keyed list. Any JSON object
// becomes a record once an id is attached.
type Record map[string]any

// ID returns the record identifier and whether it is an integer.
// Ids assigned by the store are ints; ids written by a client patch
// arrive as json.Number or float64 and count only when integral.
func (r Record) ID() (int, bool) {
	switch v := r[IDField].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

// WithID returns a copy of r carrying id.
func (r Record) WithID(id int) Record {
	out := r.Clone()
	out[IDField] = id
	return out
}

// Clone returns a shallow copy. Nested values are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge overwrites r's top-level fields with patch's and returns the result.
// An id in patch replaces r's, so the record moves to that id.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}
