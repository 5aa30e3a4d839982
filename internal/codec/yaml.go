package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"zmodels/internal/domain"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads one mapping or a sequence of mappings
func (c *YAMLCodec) Parse(r io.Reader) ([]domain.Attributes, error) {
	var doc any
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	sets, err := attributeSets(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return sets, nil
}

// Export writes models as a YAML sequence of mappings, keys in storage order
func (c *YAMLCodec) Export(models []*domain.Model, w io.Writer) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}

	for _, m := range models {
		mapping := &yaml.Node{Kind: yaml.MappingNode}
		for _, field := range m.Fields() {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: field}
			value := &yaml.Node{}
			if err := value.Encode(m.Value(field)); err != nil {
				return fmt.Errorf("failed to encode %s.%s: %w", m.Name(), field, err)
			}
			mapping.Content = append(mapping.Content, key, value)
		}
		seq.Content = append(seq.Content, mapping)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(seq); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
