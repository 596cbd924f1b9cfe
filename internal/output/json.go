/*
PURPOSE:
  Writes result rows to a JSON Lines file (NDJSON).
  Optimized for machine parsing next to the CSV report.

REQUIREMENTS:
  User-specified:
  - JSON output for easier parsing.

  Implementation-discovered:
  - JSON Lines is better for streaming/logging than a single large array (append-friendly).
  - Rows marshal in column order (model.Row.MarshalJSON).

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Consumes: *model.Row

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.
  - Thread-safe.

USAGE:
  w, err := output.NewJSONWriter("nanomelt_results.jsonl")
  w.Write(row)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - None specific.

RELATED FILES:
  - internal/model/row.go

MAINTENANCE:
  - Update if we switch to plain JSON array (not recommended for streaming).
*/

package output

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/daryltucker/seqdash/internal/model"
)

// JSONWriter handles writing rows to a JSON Lines stream.
type JSONWriter struct {
	closer  io.Closer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter creates a JSONWriter backed by a new file at path.
func NewJSONWriter(path string) (*JSONWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{
		closer:  f,
		encoder: json.NewEncoder(f),
	}, nil
}

// NewJSONStream writes to w; Close is a no-op.
func NewJSONStream(w io.Writer) *JSONWriter {
	return &JSONWriter{encoder: json.NewEncoder(w)}
}

// Write writes a single row as a JSON line.
func (jw *JSONWriter) Write(r *model.Row) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return jw.encoder.Encode(r)
}

// WriteAll writes rows in order and stops at the first error.
func (jw *JSONWriter) WriteAll(rows []*model.Row) error {
	for _, r := range rows {
		if err := jw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (jw *JSONWriter) Close() error {
	if jw.closer == nil {
		return nil
	}
	return jw.closer.Close()
}
