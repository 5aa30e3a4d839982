package sqlrepo

import (
	"database/sql/driver"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"zmodels/internal/domain"
)

// ============================================================================
// Null Detection
// ============================================================================

// isNull reports whether v stands for SQL NULL: nil, a nil pointer, map,
// slice or interface, or a driver.Valuer yielding nil
func isNull(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return true
		}
	}

	if valuer, ok := v.(driver.Valuer); ok {
		value, err := valuer.Value()
		return err == nil && value == nil
	}
	return false
}

// ============================================================================
// Row Hydration
// ============================================================================

// hydrate builds a model from a scanned row, fields in result column order.
// Columns the schema does not declare are left out so the model can be saved back.
func (r *Repository) hydrate(columns []string, row map[string]any) *domain.Model {
	m := domain.NewModel(r.schema.Model, nil)
	for _, col := range columns {
		f, ok := r.schema.Field(col)
		if !ok {
			continue
		}
		m.Set(col, normalize(f.Type, row[col]))
	}
	return m
}

// timeLayouts are tried in order when a time column comes back as text
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalize converts a driver value to the Go type of the field.
// Drivers disagree on representations (MySQL text results arrive as
// []byte, SQLite booleans as integers); values that cannot be converted
// are returned as read.
func normalize(t domain.FieldType, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}

	switch t {
	case domain.FieldInt:
		switch n := v.(type) {
		case int64:
			return n
		case int:
			return int64(n)
		case int32:
			return int64(n)
		case uint64:
			return int64(n)
		case float64:
			if n == float64(int64(n)) {
				return int64(n)
			}
		case string:
			if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
				return parsed
			}
		}

	case domain.FieldFloat:
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int64:
			return float64(n)
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil {
				return parsed
			}
		}

	case domain.FieldBool:
		switch b := v.(type) {
		case bool:
			return b
		case int64:
			return b != 0
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed
			}
		}

	case domain.FieldTime:
		switch ts := v.(type) {
		case time.Time:
			return ts
		case string:
			for _, layout := range timeLayouts {
				if parsed, err := time.Parse(layout, ts); err == nil {
					return parsed
				}
			}
		}

	case domain.FieldUUID:
		switch id := v.(type) {
		case [16]byte:
			return uuid.UUID(id).String()
		case string:
			return id
		}

	default:
		if s, ok := v.(string); ok {
			return s
		}
	}

	return v
}
