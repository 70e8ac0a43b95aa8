package output

import (
	"encoding/json"
	"io"

	"green-roi/core/engine"
)

// JSONFormatter renders the full report as indented JSON
type JSONFormatter struct {
	Indent string
}

// NewJSONFormatter creates a JSON formatter with two-space indent
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{Indent: "  "}
}

// Format returns FormatJSON
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// Render writes the report
func (f *JSONFormatter) Render(w io.Writer, report *engine.Report) error {
	return WriteJSON(w, report, f.Indent)
}

// WriteJSON encodes any result value
func WriteJSON(w io.Writer, v interface{}, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	return enc.Encode(v)
}
