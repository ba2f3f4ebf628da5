package ports

import (
	"github.com/mikey/email-verifier/internal/core"
)

// ResultStore is a persistence backend for a verification run
type ResultStore interface {
	core.ResultSink
	core.SummarySink

	// Close releases the underlying connection
	Close() error
}
