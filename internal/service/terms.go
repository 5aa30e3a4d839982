package service

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"zmodels/internal/domain"
)

// NullLiteral is the textual spelling of a nil term
const NullLiteral = "null"

// ParseTerms parses field=value arguments. The value null means nil.
func ParseTerms(args []string) (map[string]any, error) {
	terms := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: expected field=value, got %q", domain.ErrInvalidValue, arg)
		}
		if value == NullLiteral {
			terms[name] = nil
			continue
		}
		terms[name] = value
	}
	return terms, nil
}

// ParseQuery turns URL query parameters into raw terms.
// Only the first value of a repeated parameter is used.
func ParseQuery(values url.Values) map[string]any {
	terms := make(map[string]any, len(values))
	for name := range values {
		value := values.Get(name)
		if value == NullLiteral {
			terms[name] = nil
			continue
		}
		terms[name] = value
	}
	return terms
}

// Coerce converts raw input values (text, JSON or YAML scalars) to the
// Go types of the schema's fields
func Coerce(schema *domain.Schema, raw map[string]any) (domain.Attributes, error) {
	attrs := make(domain.Attributes, len(raw))
	for name, value := range raw {
		field, ok := schema.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", domain.ErrUnknownField, schema.Model, name)
		}
		coerced, err := coerceValue(field.Type, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", domain.ErrInvalidValue, schema.Model, name, err)
		}
		attrs[name] = coerced
	}
	return attrs, nil
}

var inputTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func coerceValue(t domain.FieldType, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch t {
	case domain.FieldInt:
		switch v := value.(type) {
		case string:
			return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		case json.Number:
			return v.Int64()
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case uint64:
			return int64(v), nil
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("%v is not a whole number", v)
			}
			return int64(v), nil
		}

	case domain.FieldFloat:
		switch v := value.(type) {
		case string:
			return strconv.ParseFloat(strings.TrimSpace(v), 64)
		case json.Number:
			return v.Float64()
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}

	case domain.FieldBool:
		switch v := value.(type) {
		case string:
			return strconv.ParseBool(strings.TrimSpace(v))
		case bool:
			return v, nil
		}

	case domain.FieldTime:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			for _, layout := range inputTimeLayouts {
				if parsed, err := time.Parse(layout, v); err == nil {
					return parsed, nil
				}
			}
			return nil, fmt.Errorf("cannot parse %q as a time", v)
		}

	case domain.FieldUUID:
		switch v := value.(type) {
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, err
			}
			return id.String(), nil
		case uuid.UUID:
			return v.String(), nil
		}

	default:
		switch v := value.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		case int, int64, float64, bool:
			return fmt.Sprint(v), nil
		}
	}

	return nil, fmt.Errorf("unsupported %T value for %s field", value, t)
}
