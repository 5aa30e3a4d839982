package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Attributes maps field names to values.
// A nil value in search terms means "ignore this field".
type Attributes map[string]any

// Saver persists a model and returns it, possibly updated with generated fields
type Saver interface {
	Save(ctx context.Context, m *Model) (*Model, error)
}

// Model represents one persisted row of a model type
type Model struct {
	name   string
	order  []string
	fields map[string]any
}

// NewModel creates a model of the named type holding attrs.
//
// Fields listed in order come first, in that order; remaining attributes
// follow sorted by name. Names in order that attrs does not hold are skipped.
func NewModel(name string, attrs Attributes, order ...string) *Model {
	m := &Model{
		name:   name,
		order:  make([]string, 0, len(attrs)),
		fields: make(map[string]any, len(attrs)),
	}

	for _, field := range order {
		if value, ok := attrs[field]; ok {
			m.Set(field, value)
		}
	}

	rest := make([]string, 0, len(attrs))
	for field := range attrs {
		if _, seen := m.fields[field]; !seen {
			rest = append(rest, field)
		}
	}
	sort.Strings(rest)
	for _, field := range rest {
		m.Set(field, attrs[field])
	}

	return m
}

// Name returns the model type name
func (m *Model) Name() string {
	return m.name
}

// Get returns a field value and whether the model holds the field
func (m *Model) Get(field string) (any, bool) {
	value, ok := m.fields[field]
	return value, ok
}

// Value returns a field value, or nil when the model does not hold the field
func (m *Model) Value(field string) any {
	return m.fields[field]
}

// Set sets a field value. New fields are appended to the storage order.
func (m *Model) Set(field string, value any) {
	if m.fields == nil {
		m.fields = make(map[string]any)
	}
	if _, ok := m.fields[field]; !ok {
		m.order = append(m.order, field)
	}
	m.fields[field] = value
}

// Fields returns the field names in storage order
func (m *Model) Fields() []string {
	fields := make([]string, len(m.order))
	copy(fields, m.order)
	return fields
}

// Attributes returns a copy of the model's fields
func (m *Model) Attributes() Attributes {
	attrs := make(Attributes, len(m.fields))
	for k, v := range m.fields {
		attrs[k] = v
	}
	return attrs
}

// Len returns the number of fields the model holds
func (m *Model) Len() int {
	return len(m.order)
}

// Save persists the model through saver.
// It fails with ErrNoRepository when saver is nil.
func (m *Model) Save(ctx context.Context, saver Saver) (*Model, error) {
	if saver == nil {
		return nil, fmt.Errorf("save %s: %w", m.name, ErrNoRepository)
	}
	return saver.Save(ctx, m)
}

// String renders the model as TypeName(field1=value1, field2=value2)
func (m *Model) String() string {
	pairs := make([]string, 0, len(m.order))
	for _, field := range m.order {
		pairs = append(pairs, fmt.Sprintf("%s=%v", field, m.fields[field]))
	}
	return fmt.Sprintf("%s(%s)", m.name, strings.Join(pairs, ", "))
}
