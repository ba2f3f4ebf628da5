package store

import (
	"context"
	"time"

	"github.com/mikey/email-verifier/internal/core"
)

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func successRecord(runID, email, classification string) *core.ResultRecord {
	return core.NewResultRecord(runID, core.ItemResult{
		Item:     core.WorkItem{Email: email},
		Payload:  core.Payload{"input": email, "is_reachable": classification},
		Attempts: 1,
	}, testTime)
}

func failedRecord(runID, email string) *core.ResultRecord {
	return core.NewResultRecord(runID, core.ItemResult{
		Item:     core.WorkItem{Email: email},
		Err:      &core.ExhaustedRetriesError{Attempts: 3, Last: context.DeadlineExceeded},
		Attempts: 3,
	}, testTime)
}

func summaryRecord(runID string) *core.SummaryRecord {
	return &core.SummaryRecord{
		RunID: runID,
		RunSummary: core.RunSummary{
			Total:           3,
			Successful:      2,
			Failed:          1,
			Classifications: map[string]int{"safe": 1, "risky": 1},
		},
		StartedAt:  testTime,
		FinishedAt: testTime.Add(1500 * time.Millisecond),
	}
}
