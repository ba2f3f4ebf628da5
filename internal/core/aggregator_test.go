package core

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	results := []ItemResult{
		{Item: WorkItem{Email: "a@x.com"}, Payload: Payload{"is_reachable": "safe"}, Attempts: 1},
		{Item: WorkItem{Email: "b@x.com"}, Payload: Payload{"is_reachable": "risky"}, Attempts: 2},
		{Item: WorkItem{Email: "c@x.com"}, Payload: Payload{"is_reachable": "safe"}, Attempts: 1},
		{Item: WorkItem{Email: "d@x.com"}, Err: errors.New("failed after 3 attempts"), Attempts: 3},
		{Item: WorkItem{Email: "e@x.com"}, Payload: Payload{"is_reachable": "unknown"}, Attempts: 1},
		{Item: WorkItem{Email: "f@x.com"}, Payload: Payload{"syntax": map[string]any{}}, Attempts: 1},
	}

	summary := Summarize(results)

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 5, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, map[string]int{"safe": 2, "risky": 1, "unknown": 1}, summary.Classifications)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.Successful)
	assert.Equal(t, 0, summary.Failed)
	assert.NotNil(t, summary.Classifications)
	assert.Empty(t, summary.Classifications)
}

func TestSummarize_OrderIndependent(t *testing.T) {
	verdicts := []string{"safe", "risky", "invalid", "unknown"}
	results := make([]ItemResult, 0, 40)
	for i := 0; i < 40; i++ {
		if i%7 == 0 {
			results = append(results, ItemResult{Err: errors.New("boom"), Attempts: 3})
			continue
		}
		results = append(results, ItemResult{Payload: Payload{"is_reachable": verdicts[i%len(verdicts)]}, Attempts: 1})
	}

	expected := Summarize(results)
	assert.Equal(t, expected.Total, expected.Successful+expected.Failed)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]ItemResult(nil), results...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, expected, Summarize(shuffled))
	}
}

func TestPayloadClassification(t *testing.T) {
	c, ok := Payload{"is_reachable": "safe"}.Classification()
	assert.True(t, ok)
	assert.Equal(t, "safe", c)

	_, ok = Payload{"is_reachable": 3}.Classification()
	assert.False(t, ok)

	_, ok = Payload(nil).Classification()
	assert.False(t, ok)
}
