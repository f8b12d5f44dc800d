package report

import (
	"io"

	"github.com/nao1215/picase/internal/model"
)

// Writer defines the interface for report output.
// Implementations render a case record in one format.
type Writer interface {
	// Write renders the record to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(record *model.CaseRecord) (int, error)
}

// NewWriter returns the Writer for format, writing to output.
// JSON output is pretty-printed.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatHTML:
		return NewHTMLWriter(output), nil
	default:
		return nil, &FormatError{Value: string(format)}
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
