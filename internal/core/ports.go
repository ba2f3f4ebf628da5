package core

import (
	"context"
	"time"
)

// BackendClient defines the interface for the remote verification backend
type BackendClient interface {
	// CheckEmail issues exactly one verification request, bounded by timeout
	CheckEmail(ctx context.Context, item WorkItem, timeout time.Duration) (Payload, error)

	// CheckHealth issues exactly one health probe, bounded by timeout
	CheckHealth(ctx context.Context, timeout time.Duration) error
}

// ResultSink receives one record per completed item, as soon as it completes
type ResultSink interface {
	SaveResult(ctx context.Context, record *ResultRecord) error
}

// SummarySink receives the run summary once, at the end of the run
type SummarySink interface {
	SaveSummary(ctx context.Context, record *SummaryRecord) error
}

// Observer receives run telemetry. Implementations must be safe for concurrent use.
type Observer interface {
	AttemptFinished(item WorkItem, attempt int, err error, latency time.Duration)
	ItemStarted(item WorkItem)
	ItemFinished(result ItemResult)
}

// NoopObserver discards all telemetry
type NoopObserver struct{}

func (NoopObserver) AttemptFinished(WorkItem, int, error, time.Duration) {}
func (NoopObserver) ItemStarted(WorkItem)                                {}
func (NoopObserver) ItemFinished(ItemResult)                             {}
