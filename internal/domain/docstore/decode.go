// internal/domain/docstore/decode.go
package docstore

import (
	"math"
	"time"

	"hanami/internal/domain/common"
)

// Reader is the typed decode boundary over an untyped document.
// 必須項目の欠落・型違いは panic せず common.ErrSchemaMismatch で返す。
type Reader struct {
	path string
	data map[string]any
}

func NewReader(doc Document) Reader {
	return Reader{path: doc.Path, data: doc.Data}
}

func (r Reader) lookup(field string) (any, bool) {
	if r.data == nil {
		return nil, false
	}
	v, ok := r.data[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns a required string field.
func (r Reader) String(field string) (string, error) {
	v, ok := r.lookup(field)
	if !ok {
		return "", common.SchemaError(r.path, field, "is missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", common.SchemaError(r.path, field, "is not a string")
	}
	return s, nil
}

// OptString returns a string field that may be absent.
func (r Reader) OptString(field string) (string, error) {
	if _, ok := r.lookup(field); !ok {
		return "", nil
	}
	return r.String(field)
}

// Float returns a required number field (int or float on the wire).
func (r Reader) Float(field string) (float64, error) {
	v, ok := r.lookup(field)
	if !ok {
		return 0, common.SchemaError(r.path, field, "is missing")
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	default:
		return 0, common.SchemaError(r.path, field, "is not a number")
	}
}

// Int returns a required integer field; integral floats are accepted.
func (r Reader) Int(field string) (int, error) {
	v, ok := r.lookup(field)
	if !ok {
		return 0, common.SchemaError(r.path, field, "is missing")
	}
	switch t := v.(type) {
	case int64:
		return int(t), nil
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, common.SchemaError(r.path, field, "is not an integer")
		}
		return int(t), nil
	default:
		return 0, common.SchemaError(r.path, field, "is not an integer")
	}
}

// Bool returns a required bool field.
func (r Reader) Bool(field string) (bool, error) {
	v, ok := r.lookup(field)
	if !ok {
		return false, common.SchemaError(r.path, field, "is missing")
	}
	b, ok := v.(bool)
	if !ok {
		return false, common.SchemaError(r.path, field, "is not a bool")
	}
	return b, nil
}

// Time returns a required timestamp field.
func (r Reader) Time(field string) (time.Time, error) {
	v, ok := r.lookup(field)
	if !ok {
		return time.Time{}, common.SchemaError(r.path, field, "is missing")
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, common.SchemaError(r.path, field, "is not a timestamp")
	}
	return t.UTC(), nil
}

// StringList returns an optional array-of-strings field (absent → nil).
func (r Reader) StringList(field string) ([]string, error) {
	v, ok := r.lookup(field)
	if !ok {
		return nil, nil
	}
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			s, ok := x.(string)
			if !ok {
				return nil, common.SchemaError(r.path, field, "contains a non-string element")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, common.SchemaError(r.path, field, "is not an array")
	}
}
