package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"zmodels/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads one object or an array of objects.
// Numbers are kept as json.Number so callers can coerce them per field type.
func (c *JSONCodec) Parse(r io.Reader) ([]domain.Attributes, error) {
	var doc any
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	sets, err := attributeSets(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return sets, nil
}

// Export writes models as a JSON array of objects
func (c *JSONCodec) Export(models []*domain.Model, w io.Writer) error {
	objects := make([]orderedObject, 0, len(models))
	for _, m := range models {
		objects = append(objects, orderedObject{m})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(objects); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// EncodeModel writes a single model as a JSON object
func (c *JSONCodec) EncodeModel(m *domain.Model, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(orderedObject{m}); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// orderedObject marshals a model with keys in storage order
type orderedObject struct {
	m *domain.Model
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range o.m.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(o.m.Value(field))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
