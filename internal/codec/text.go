package codec

import (
	"fmt"
	"io"

	"zmodels/internal/domain"
)

// TextCodec writes one model per line in its String form
type TextCodec struct{}

// NewTextCodec creates a new text codec
func NewTextCodec() *TextCodec {
	return &TextCodec{}
}

// Format returns the codec format identifier
func (c *TextCodec) Format() string {
	return "text"
}

// Export writes models as TypeName(field=value, ...) lines
func (c *TextCodec) Export(models []*domain.Model, w io.Writer) error {
	for _, m := range models {
		if _, err := fmt.Fprintln(w, m.String()); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
	}
	return nil
}
