package domain

import (
	"fmt"
	"regexp"
)

// FieldType represents the storage type of a field
type FieldType string

const (
	FieldString FieldType = "string" // short text, indexable
	FieldText   FieldType = "text"   // unbounded text
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
	FieldBool   FieldType = "bool"
	FieldTime   FieldType = "time"
	FieldUUID   FieldType = "uuid"
)

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldText, FieldInt, FieldFloat, FieldBool, FieldTime, FieldUUID:
		return true
	}
	return false
}

// Generated represents how a primary key value is produced when a model lacks one
type Generated string

const (
	GeneratedNone Generated = ""     // caller supplies the key
	GeneratedAuto Generated = "auto" // database auto-increment
	GeneratedUUID Generated = "uuid" // random UUID assigned before insert
)

// Field describes one column of a model's table
type Field struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	PrimaryKey bool      `json:"primary_key,omitempty"`
	Generated  Generated `json:"generated,omitempty"`
	Unique     bool      `json:"unique,omitempty"`
	Required   bool      `json:"required,omitempty"`
}

// Schema describes how a model type maps to a table
type Schema struct {
	Model  string  `json:"model"`
	Table  string  `json:"table"`
	Fields []Field `json:"fields"`
}

// identifierPattern is the allow-list for table and column names written into SQL
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether name may be used as a table or column name
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// NewSchema creates a validated schema for model.
// The table name is derived from the model name.
func NewSchema(model string, fields ...Field) (*Schema, error) {
	s := &Schema{
		Model:  model,
		Table:  TableName(model),
		Fields: fields,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the schema against the identifier allow-list and key rules.
// An empty table name is filled from the model name.
func (s *Schema) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("%w: model name is required", ErrInvalidSchema)
	}
	if s.Table == "" {
		s.Table = TableName(s.Model)
	}
	if !IsIdentifier(s.Table) {
		return fmt.Errorf("%w: %s: invalid table name %q", ErrInvalidSchema, s.Model, s.Table)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: %s: no fields", ErrInvalidSchema, s.Model)
	}

	seen := make(map[string]bool, len(s.Fields))
	keys := 0
	for i := range s.Fields {
		f := &s.Fields[i]
		if !IsIdentifier(f.Name) {
			return fmt.Errorf("%w: %s: invalid field name %q", ErrInvalidSchema, s.Model, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidSchema, s.Model, f.Name)
		}
		seen[f.Name] = true

		if f.Type == "" {
			f.Type = FieldString
		}
		if !f.Type.Valid() {
			return fmt.Errorf("%w: %s.%s: unknown type %q", ErrInvalidSchema, s.Model, f.Name, f.Type)
		}

		if f.PrimaryKey {
			keys++
		}
		switch f.Generated {
		case GeneratedNone:
		case GeneratedAuto:
			if !f.PrimaryKey || f.Type != FieldInt {
				return fmt.Errorf("%w: %s.%s: auto generation needs an int primary key", ErrInvalidSchema, s.Model, f.Name)
			}
		case GeneratedUUID:
			if !f.PrimaryKey || (f.Type != FieldUUID && f.Type != FieldString) {
				return fmt.Errorf("%w: %s.%s: uuid generation needs a uuid or string primary key", ErrInvalidSchema, s.Model, f.Name)
			}
		default:
			return fmt.Errorf("%w: %s.%s: unknown generation %q", ErrInvalidSchema, s.Model, f.Name, f.Generated)
		}
	}
	if keys > 1 {
		return fmt.Errorf("%w: %s: %d primary keys, at most one allowed", ErrInvalidSchema, s.Model, keys)
	}

	return nil
}

// Field returns the named field
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKey returns the primary key field, if the schema declares one
func (s *Schema) PrimaryKey() (Field, bool) {
	for _, f := range s.Fields {
		if f.PrimaryKey {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in declaration order
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// CheckAttributes fails with ErrUnknownField if attrs names a field the schema does not declare
func (s *Schema) CheckAttributes(attrs Attributes) error {
	for name := range attrs {
		if _, ok := s.Field(name); !ok {
			return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, s.Model, name)
		}
	}
	return nil
}
