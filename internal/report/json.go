package report

import (
	"context"
	"encoding/json"
	"io"
)

// JSONExporter writes the taxonomy as JSON.
// This format is designed for tool integration and programmatic processing.
type JSONExporter struct {
	// indent enables pretty-printed JSON output.
	indent       bool
	indentPrefix string
	indentString string
}

// JSONExporterOption configures a JSONExporter.
type JSONExporterOption func(*JSONExporter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONExporterOption {
	return func(e *JSONExporter) {
		e.indent = true
		e.indentPrefix = prefix
		e.indentString = indent
	}
}

// WithCompact disables indentation.
func WithCompact() JSONExporterOption {
	return func(e *JSONExporter) {
		e.indent = false
	}
}

// NewJSONExporter creates a JSONExporter. Output is indented with two
// spaces unless WithCompact is given.
func NewJSONExporter(opts ...JSONExporterOption) *JSONExporter {
	e := &JSONExporter{
		indent:       true,
		indentString: "  ",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Format implements Exporter.
func (e *JSONExporter) Format() Format {
	return FormatJSON
}

// Export implements Exporter.
func (e *JSONExporter) Export(_ context.Context, w io.Writer, a *Artifacts) error {
	var (
		data []byte
		err  error
	)
	if e.indent {
		data, err = json.MarshalIndent(a.Taxonomy, e.indentPrefix, e.indentString)
	} else {
		data, err = json.Marshal(a.Taxonomy)
	}
	if err != nil {
		return err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
