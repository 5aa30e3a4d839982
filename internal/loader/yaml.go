// Package loader reads model schema descriptors from YAML files.
//
// A schema file lists models and their fields:
//
//	version: "1"
//	models:
//	  - name: BlogPost
//	    fields:
//	      - {name: id, type: int, primary_key: true, generated: auto}
//	      - {name: title, type: string, required: true}
//	      - {name: body, type: text}
//
// The table name defaults to the one derived from the model name.
package loader

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"zmodels/internal/domain"
)

// SchemaFileYAML represents the YAML file structure
type SchemaFileYAML struct {
	Version string      `yaml:"version,omitempty"`
	Models  []ModelYAML `yaml:"models" validate:"required,min=1,dive"`
}

// ModelYAML represents one model type
type ModelYAML struct {
	Name   string      `yaml:"name" validate:"required"`
	Table  string      `yaml:"table,omitempty"`
	Fields []FieldYAML `yaml:"fields" validate:"required,min=1,dive"`
}

// FieldYAML represents one column
type FieldYAML struct {
	Name       string `yaml:"name" validate:"required"`
	Type       string `yaml:"type,omitempty" validate:"omitempty,oneof=string text int float bool time uuid"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
	Generated  string `yaml:"generated,omitempty" validate:"omitempty,oneof=auto uuid"`
	Unique     bool   `yaml:"unique,omitempty"`
	Required   bool   `yaml:"required,omitempty"`
}

// LoadYAML loads schema descriptors from a YAML file
func LoadYAML(path string) ([]*domain.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses schema descriptors from YAML bytes
func ParseYAML(data []byte) ([]*domain.Schema, error) {
	var file SchemaFileYAML
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validator.New().Struct(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
	}

	return convertYAMLToSchemas(&file)
}

func convertYAMLToSchemas(file *SchemaFileYAML) ([]*domain.Schema, error) {
	schemas := make([]*domain.Schema, 0, len(file.Models))
	seen := make(map[string]bool, len(file.Models))
	tables := make(map[string]string, len(file.Models))

	for _, m := range file.Models {
		if seen[m.Name] {
			return nil, fmt.Errorf("%w: model %s declared twice", domain.ErrInvalidSchema, m.Name)
		}
		seen[m.Name] = true

		schema := &domain.Schema{
			Model:  m.Name,
			Table:  m.Table,
			Fields: make([]domain.Field, 0, len(m.Fields)),
		}
		for _, f := range m.Fields {
			schema.Fields = append(schema.Fields, domain.Field{
				Name:       f.Name,
				Type:       domain.FieldType(f.Type),
				PrimaryKey: f.PrimaryKey,
				Generated:  domain.Generated(f.Generated),
				Unique:     f.Unique,
				Required:   f.Required,
			})
		}

		if err := schema.Validate(); err != nil {
			return nil, err
		}

		if other, ok := tables[schema.Table]; ok {
			return nil, fmt.Errorf("%w: models %s and %s share table %s",
				domain.ErrInvalidSchema, other, m.Name, schema.Table)
		}
		tables[schema.Table] = m.Name

		schemas = append(schemas, schema)
	}

	return schemas, nil
}

// ExportYAML renders schema descriptors in the file format ParseYAML reads
func ExportYAML(schemas []*domain.Schema) ([]byte, error) {
	file := SchemaFileYAML{
		Version: "1",
		Models:  make([]ModelYAML, 0, len(schemas)),
	}
	for _, s := range schemas {
		m := ModelYAML{Name: s.Model, Table: s.Table}
		for _, f := range s.Fields {
			m.Fields = append(m.Fields, FieldYAML{
				Name:       f.Name,
				Type:       string(f.Type),
				PrimaryKey: f.PrimaryKey,
				Generated:  string(f.Generated),
				Unique:     f.Unique,
				Required:   f.Required,
			})
		}
		file.Models = append(file.Models, m)
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return data, nil
}
