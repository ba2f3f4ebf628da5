package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mikey/email-verifier/internal/core"
)

// StdoutPath selects standard output as the results file
const StdoutPath = "-"

// JSONLinesWriter writes one JSON object per completed item as soon as it
// completes, then forwards the record to the next sink
type JSONLinesWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	next   core.ResultSink
}

// NewJSONLinesWriter creates a new JSON Lines writer on out. next may be nil.
func NewJSONLinesWriter(out io.Writer, next core.ResultSink) *JSONLinesWriter {
	return &JSONLinesWriter{
		enc:  json.NewEncoder(out),
		next: next,
	}
}

// OpenJSONLines creates a JSON Lines writer for path. "-" writes to stdout;
// any other path is created or truncated and closed by Close.
func OpenJSONLines(path string, next core.ResultSink) (*JSONLinesWriter, error) {
	if path == StdoutPath {
		return NewJSONLinesWriter(os.Stdout, next), nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}

	w := NewJSONLinesWriter(f, next)
	w.closer = f
	return w, nil
}

// SaveResult writes {"email": ..., <payload fields>} for a verified item and
// {"email": ..., "error": ...} for a failed one
func (w *JSONLinesWriter) SaveResult(ctx context.Context, record *core.ResultRecord) error {
	line := make(map[string]any, len(record.Payload)+1)
	if record.Error != "" {
		line["error"] = record.Error
	} else {
		for k, v := range record.Payload {
			line[k] = v
		}
	}
	line["email"] = record.Email

	w.mu.Lock()
	writeErr := w.enc.Encode(line)
	w.mu.Unlock()
	if writeErr != nil {
		writeErr = fmt.Errorf("failed to write result line: %w", writeErr)
	}

	// The next sink gets the record even when the line could not be written
	if w.next == nil {
		return writeErr
	}
	return errors.Join(writeErr, w.next.SaveResult(ctx, record))
}

// Close closes the results file, if one was opened
func (w *JSONLinesWriter) Close() error {
	if w.closer == nil {
		return nil
	}
	if err := w.closer.Close(); err != nil {
		return fmt.Errorf("failed to close results file: %w", err)
	}
	return nil
}
