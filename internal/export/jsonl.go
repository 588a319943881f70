package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/deskcorder/internal/session"
)

// JSONLExporter exports sessions in JSONL format (one event per line)
type JSONLExporter struct{}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(l *session.Log, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, r := range Records(l) {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", i, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
