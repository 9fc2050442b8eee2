package docstore

import (
	"context"
	"encoding/json"
	"math"
)

// Reserved document keys.
const (
	KeyField = "id"
	RevField = "_rev"
)

// Document is a schemaless record. Values are JSON-shaped: nil, bool, string,
// numbers, []any and map[string]any.
type Document map[string]any

// FindOptions controls projection and paging of Find results.
type FindOptions struct {
	// Fields limits the returned keys. The id and revision are always kept.
	// Empty means the full document.
	Fields []string

	// Skip drops this many matching documents before collecting results.
	Skip int

	// Limit caps the number of returned documents. Zero means no limit.
	Limit int
}

// Collection is a keyed set of documents.
type Collection interface {
	// Get returns the document stored under id, or ErrNotFound.
	Get(ctx context.Context, id string) (Document, error)

	// Put creates or replaces a document and returns its new revision.
	// See the package documentation for the revision rules.
	Put(ctx context.Context, doc Document) (int64, error)

	// Remove deletes the document stored under id, or returns ErrNotFound.
	Remove(ctx context.Context, id string) error

	// BulkDelete removes every listed document. Unknown ids are ignored.
	BulkDelete(ctx context.Context, ids []string) error

	// Find returns the documents matching sel. A nil selector matches everything.
	Find(ctx context.Context, sel *Selector, opts FindOptions) ([]Document, error)
}

// ID returns the document key, or "" if absent.
func (d Document) ID() string {
	s, _ := d[KeyField].(string)
	return s
}

// Rev returns the document revision, or 0 if absent.
func (d Document) Rev() int64 {
	n, _ := AsInt64(d[RevField])
	return n
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = CloneValue(v)
	}
	return out
}

// Project returns a copy holding only the listed fields plus id and revision.
func (d Document) Project(fields []string) Document {
	if len(fields) == 0 {
		return d.Clone()
	}
	out := make(Document, len(fields)+2)
	for _, k := range []string{KeyField, RevField} {
		if v, ok := d[k]; ok {
			out[k] = v
		}
	}
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = CloneValue(v)
		}
	}
	return out
}

// CloneValue deep-copies maps and slices of a JSON-shaped value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = CloneValue(vv)
		}
		return m
	case Document:
		return map[string]any(t.Clone())
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = CloneValue(vv)
		}
		return s
	default:
		return v
	}
}

// AsInt64 converts any Go or JSON numeric value with no fractional part to int64.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return AsInt64(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return AsInt64(f)
	}
	return 0, false
}

// AsFloat64 converts any Go or JSON numeric value to float64.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := AsInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
