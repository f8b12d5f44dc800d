package report

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an output format selector.
type Format string

const (
	// FormatJSON renders the record as JSON.
	FormatJSON Format = "json"
	// FormatMarkdown renders the record as Markdown.
	FormatMarkdown Format = "markdown"
	// FormatHTML renders the record as an HTML page.
	FormatHTML Format = "html"
)

// DefaultFormat is used when no format is given.
const DefaultFormat = FormatMarkdown

// ErrInvalidFormat is wrapped by FormatError.
var ErrInvalidFormat = errors.New("invalid output format")

// FormatError is returned when a format selector is not one of Formats.
type FormatError struct {
	// Value is the rejected selector.
	Value string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return fmt.Sprintf("%s %q: must be one of %s", ErrInvalidFormat, e.Value, strings.Join(names, ", "))
}

// Unwrap returns ErrInvalidFormat.
func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatMarkdown, FormatHTML}
}

// ParseFormat parses a format selector. Surrounding space and case are ignored.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", &FormatError{Value: s}
}

// Extension returns the file name extension for the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	default:
		return string(f)
	}
}

// String returns the selector.
func (f Format) String() string {
	return string(f)
}
