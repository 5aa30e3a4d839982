package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("nothing has been found")

	// ErrNotUnique is returned when a lookup expecting one row matches several.
	ErrNotUnique = errors.New("several instances have been found")

	// ErrNoRepository is returned when a model is saved without a repository.
	ErrNoRepository = errors.New("no repository bound to model")

	// ErrUnknownField is returned when a term or attribute names a field the schema does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownModel is returned when no repository is registered for a model name.
	ErrUnknownModel = errors.New("unknown model")

	// ErrInvalidSchema is returned when a schema descriptor fails validation.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrInvalidValue is returned when an input value cannot be converted to its field type.
	ErrInvalidValue = errors.New("invalid value")

	// ErrModelMismatch is returned when a repository is asked to save a model of another type.
	ErrModelMismatch = errors.New("model does not belong to repository")
)

// LookupError wraps ErrNotFound or ErrNotUnique with the lookup that produced it.
type LookupError struct {
	// Base is ErrNotFound or ErrNotUnique
	Base error

	// Model is the model type name that was searched
	Model string

	// Terms are the search terms of the lookup
	Terms Attributes

	// Count is the number of rows that matched
	Count int
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Model, e.Base.Error())
	if e.Count > 1 {
		msg = fmt.Sprintf("%s (%d rows)", msg, e.Count)
	}
	if len(e.Terms) > 0 {
		keys := make([]string, 0, len(e.Terms))
		for k := range e.Terms {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, e.Terms[k]))
		}
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(pairs, ", "))
	}
	return msg
}

// Unwrap returns the base error for errors.Is/As support.
func (e *LookupError) Unwrap() error {
	return e.Base
}

// NewNotFoundError creates a not found error for a lookup.
func NewNotFoundError(model string, terms Attributes) *LookupError {
	return &LookupError{Base: ErrNotFound, Model: model, Terms: terms}
}

// NewNotUniqueError creates a not unique error for a lookup that matched count rows.
func NewNotUniqueError(model string, terms Attributes, count int) *LookupError {
	return &LookupError{Base: ErrNotUnique, Model: model, Terms: terms, Count: count}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotUnique checks if an error is a not unique error.
func IsNotUnique(err error) bool {
	return errors.Is(err, ErrNotUnique)
}
