// Package codec converts models to and from external formats.
//
// Exporters write models with their fields in storage order; importers
// read attribute sets to be created or used as search terms.
package codec

import (
	"fmt"
	"io"
	"strings"

	"zmodels/internal/domain"
)

// Importer interface for reading attribute sets from various formats
type Importer interface {
	Parse(r io.Reader) ([]domain.Attributes, error)
	Format() string
}

// Exporter interface for writing models to various formats
type Exporter interface {
	Export(models []*domain.Model, w io.Writer) error
	Format() string
}

// ExporterFor returns the exporter for a format name
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "text", "txt", "":
		return NewTextCodec(), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// ImporterFor returns the importer for a format name
func ImporterFor(format string) (Importer, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported import format %q", format)
}

// FormatFromPath guesses a format from a file extension
func FormatFromPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".json"):
		return "json"
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return "yaml"
	}
	return ""
}

// attributeSets normalizes a decoded document: one object or a list of objects
func attributeSets(doc any) ([]domain.Attributes, error) {
	switch v := doc.(type) {
	case nil:
		return []domain.Attributes{}, nil
	case map[string]any:
		return []domain.Attributes{domain.Attributes(v)}, nil
	case []any:
		sets := make([]domain.Attributes, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d: expected an object, got %T", i, item)
			}
			sets = append(sets, domain.Attributes(obj))
		}
		return sets, nil
	}
	return nil, fmt.Errorf("expected an object or a list of objects, got %T", doc)
}
