package core

// Summarize folds item results into a RunSummary. The outcome depends only on
// the multiset of results, not on their order.
func Summarize(results []ItemResult) RunSummary {
	summary := RunSummary{
		Total:           len(results),
		Classifications: make(map[string]int),
	}

	for _, r := range results {
		if !r.Succeeded() {
			summary.Failed++
			continue
		}
		summary.Successful++
		// Items without a verdict only count toward the totals
		if c, ok := r.Payload.Classification(); ok {
			summary.Classifications[c]++
		}
	}

	return summary
}
