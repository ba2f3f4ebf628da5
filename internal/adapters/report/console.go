package report

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/mikey/email-verifier/internal/core"
)

// ConsoleReporter prints the run summary and forwards it to the next sink
type ConsoleReporter struct {
	out  io.Writer
	next core.SummarySink
}

// NewConsoleReporter creates a new console reporter. next may be nil.
func NewConsoleReporter(out io.Writer, next core.SummarySink) *ConsoleReporter {
	return &ConsoleReporter{
		out:  out,
		next: next,
	}
}

// SaveSummary prints the summary, then hands it to the next sink
func (r *ConsoleReporter) SaveSummary(ctx context.Context, record *core.SummaryRecord) error {
	fmt.Fprintf(r.out, "\n=== Verification Summary ===\n")
	fmt.Fprintf(r.out, "Run ID: %s\n", record.RunID)
	fmt.Fprintf(r.out, "Total: %d\n", record.Total)
	fmt.Fprintf(r.out, "Successful: %d\n", record.Successful)
	fmt.Fprintf(r.out, "Failed: %d\n", record.Failed)
	fmt.Fprintf(r.out, "Duration: %v\n", record.Duration())

	if len(record.Classifications) > 0 {
		fmt.Fprintf(r.out, "\n=== Reachability ===\n")
		names := make([]string, 0, len(record.Classifications))
		for name := range record.Classifications {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.out, "%-10s %d\n", name+":", record.Classifications[name])
		}
	}

	if r.next == nil {
		return nil
	}
	return r.next.SaveSummary(ctx, record)
}
