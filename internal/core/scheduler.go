package core

import (
	"context"
)

// ItemOperation runs one item to its terminal result. It is called from a
// dedicated goroutine per in-flight item.
type ItemOperation func(ctx context.Context, item WorkItem) ItemResult

// BatchOutcome is what RunBatch returns once the in-flight set has drained
type BatchOutcome struct {
	Results []ItemResult
	// Skipped counts queued items that were never started because ctx was done
	Skipped int
}

// RunBatch drains items through op with at most limit operations in flight.
// Items are started in FIFO order; results are collected in completion order
// and handed to emit one at a time from the calling goroutine, so emit needs
// no locking. ctx only gates admission: when it is done no further items are
// started, while items already in flight run on a context detached from its
// cancellation and are always waited for.
func RunBatch(ctx context.Context, items []WorkItem, limit int, op ItemOperation, emit func(ItemResult)) BatchOutcome {
	if limit < 1 {
		limit = 1
	}

	// In-flight items are bounded by their own attempt deadlines only
	workCtx := context.WithoutCancel(ctx)

	// Buffered so a finished worker never blocks on the coordinator
	done := make(chan ItemResult, limit)
	results := make([]ItemResult, 0, len(items))

	next := 0
	inFlight := 0
	for next < len(items) || inFlight > 0 {
		for inFlight < limit && next < len(items) && ctx.Err() == nil {
			item := items[next]
			next++
			inFlight++
			go func() {
				done <- op(workCtx, item)
			}()
		}

		if inFlight == 0 {
			// ctx is done and nothing is running
			break
		}

		result := <-done
		inFlight--
		results = append(results, result)
		if emit != nil {
			emit(result)
		}
	}

	return BatchOutcome{
		Results: results,
		Skipped: len(items) - next,
	}
}
