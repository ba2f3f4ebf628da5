package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeBackend answers each email from a script of per-attempt outcomes
type fakeBackend struct {
	mu       sync.Mutex
	calls    map[string]int
	respond  func(item WorkItem, call int) (Payload, error)
	healthy  func(probe int) error
	probes   int
	timeouts []time.Duration
}

func (b *fakeBackend) CheckEmail(ctx context.Context, item WorkItem, timeout time.Duration) (Payload, error) {
	b.mu.Lock()
	if b.calls == nil {
		b.calls = map[string]int{}
	}
	b.calls[item.Email]++
	call := b.calls[item.Email]
	b.timeouts = append(b.timeouts, timeout)
	b.mu.Unlock()
	return b.respond(item, call)
}

func (b *fakeBackend) CheckHealth(ctx context.Context, timeout time.Duration) error {
	b.mu.Lock()
	b.probes++
	probe := b.probes
	b.mu.Unlock()
	if b.healthy == nil {
		return nil
	}
	return b.healthy(probe)
}

func (b *fakeBackend) totalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

type recordingSink struct {
	mu        sync.Mutex
	results   []*ResultRecord
	summaries []*SummaryRecord
	err       error
}

func (s *recordingSink) SaveResult(ctx context.Context, record *ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, record)
	return s.err
}

func (s *recordingSink) SaveSummary(ctx context.Context, record *SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, record)
	return s.err
}

type countingObserver struct {
	mu       sync.Mutex
	attempts int
	started  int
	finished int
}

func (o *countingObserver) AttemptFinished(WorkItem, int, error, time.Duration) {
	o.mu.Lock()
	o.attempts++
	o.mu.Unlock()
}

func (o *countingObserver) ItemStarted(WorkItem) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *countingObserver) ItemFinished(ItemResult) {
	o.mu.Lock()
	o.finished++
	o.mu.Unlock()
}

func newTestService(t *testing.T, backend BackendClient, sink *recordingSink, observer Observer, cfg RunConfig, delays *[]time.Duration) *VerificationService {
	svc := NewVerificationService(backend, sink, sink, observer, zaptest.NewLogger(t), cfg)
	svc.sleep = recordingSleep(delays)
	return svc
}

func items(emails ...string) []WorkItem {
	out := make([]WorkItem, len(emails))
	for i, e := range emails {
		out[i] = WorkItem{Email: e, Address: e}
	}
	return out
}

func TestVerificationService_AllSucceed(t *testing.T) {
	backend := &fakeBackend{respond: func(item WorkItem, call int) (Payload, error) {
		if item.Email == "b@x.com" {
			return Payload{"is_reachable": "risky"}, nil
		}
		return Payload{"is_reachable": "safe"}, nil
	}}
	sink := &recordingSink{}
	observer := &countingObserver{}
	var delays []time.Duration
	cfg := RunConfig{Concurrency: 2, MaxAttempts: 3, BaseDelay: time.Second, AttemptTimeout: 30 * time.Second}

	svc := newTestService(t, backend, sink, observer, cfg, &delays)
	record, err := svc.Run(context.Background(), items("a@x.com", "b@x.com"))

	require.NoError(t, err)
	assert.Equal(t, 2, record.Total)
	assert.Equal(t, 2, record.Successful)
	assert.Equal(t, 0, record.Failed)
	assert.Equal(t, map[string]int{"safe": 1, "risky": 1}, record.Classifications)
	assert.NotEmpty(t, record.RunID)
	assert.False(t, record.FinishedAt.Before(record.StartedAt))

	assert.Equal(t, 2, backend.totalCalls())
	assert.Empty(t, delays)
	for _, timeout := range backend.timeouts {
		assert.Equal(t, 30*time.Second, timeout)
	}

	require.Len(t, sink.results, 2)
	require.Len(t, sink.summaries, 1)
	for _, r := range sink.results {
		assert.Equal(t, record.RunID, r.RunID)
		assert.Equal(t, 1, r.Attempts)
		assert.Empty(t, r.Error)
	}
	assert.Same(t, record, sink.summaries[0])

	assert.Equal(t, 2, observer.attempts)
	assert.Equal(t, 2, observer.started)
	assert.Equal(t, 2, observer.finished)
}

func TestVerificationService_RetryThenSucceed(t *testing.T) {
	backend := &fakeBackend{respond: func(item WorkItem, call int) (Payload, error) {
		if call < 3 {
			return nil, &TransportError{Op: "check email", Err: errors.New("connection refused")}
		}
		return Payload{"is_reachable": "invalid"}, nil
	}}
	sink := &recordingSink{}
	var delays []time.Duration
	cfg := RunConfig{Concurrency: 1, MaxAttempts: 3, BaseDelay: time.Second, AttemptTimeout: time.Second}

	svc := newTestService(t, backend, sink, nil, cfg, &delays)
	record, err := svc.Run(context.Background(), items("c@x.com"))

	require.NoError(t, err)
	assert.Equal(t, 1, record.Successful)
	assert.Equal(t, map[string]int{"invalid": 1}, record.Classifications)
	assert.Equal(t, 3, backend.totalCalls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)

	require.Len(t, sink.results, 1)
	assert.Equal(t, 3, sink.results[0].Attempts)
	assert.Equal(t, "invalid", sink.results[0].Classification)
}

func TestVerificationService_ExhaustedRetries(t *testing.T) {
	backend := &fakeBackend{respond: func(item WorkItem, call int) (Payload, error) {
		return nil, &BackendError{Email: item.Email, StatusCode: 500, Status: "500 Internal Server Error", Body: "oops"}
	}}
	sink := &recordingSink{}
	var delays []time.Duration
	cfg := RunConfig{Concurrency: 1, MaxAttempts: 3, BaseDelay: time.Second, AttemptTimeout: time.Second}

	svc := newTestService(t, backend, sink, nil, cfg, &delays)
	record, err := svc.Run(context.Background(), items("d@x.com"))

	require.NoError(t, err)
	assert.Equal(t, 1, record.Total)
	assert.Equal(t, 0, record.Successful)
	assert.Equal(t, 1, record.Failed)
	assert.Empty(t, record.Classifications)
	assert.Equal(t, 3, backend.totalCalls())
	assert.Equal(t, 3*time.Second, delays[0]+delays[1])

	require.Len(t, sink.results, 1)
	assert.Equal(t, 3, sink.results[0].Attempts)
	assert.Contains(t, sink.results[0].Error, "failed after 3 attempts")
	assert.Contains(t, sink.results[0].Error, "500 Internal Server Error")
}

func TestVerificationService_EmptyInput(t *testing.T) {
	backend := &fakeBackend{respond: func(item WorkItem, call int) (Payload, error) {
		t.Fatal("backend must not be called")
		return nil, nil
	}}
	sink := &recordingSink{}
	cfg := RunConfig{Concurrency: 1, MaxAttempts: 1, Health: GateConfig{Enabled: true, MaxProbes: 1}}

	svc := newTestService(t, backend, sink, nil, cfg, new([]time.Duration))
	record, err := svc.Run(context.Background(), nil)

	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 0, backend.probes)
	assert.Empty(t, sink.summaries)
}

func TestVerificationService_BackendUnavailable(t *testing.T) {
	backend := &fakeBackend{
		respond: func(item WorkItem, call int) (Payload, error) {
			t.Fatal("no item may start while the backend is unavailable")
			return nil, nil
		},
		healthy: func(probe int) error { return errors.New("connection refused") },
	}
	sink := &recordingSink{}
	var delays []time.Duration
	cfg := RunConfig{
		Concurrency: 1,
		MaxAttempts: 1,
		Health:      GateConfig{Enabled: true, MaxProbes: 4, Interval: 3 * time.Second, ProbeTimeout: time.Second},
	}

	svc := newTestService(t, backend, sink, nil, cfg, &delays)
	record, err := svc.Run(context.Background(), items("a@x.com"))

	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, 4, backend.probes)
	assert.Len(t, delays, 3)
	assert.Empty(t, sink.results)
}

func TestVerificationService_GatePassesThenRuns(t *testing.T) {
	backend := &fakeBackend{
		respond: func(item WorkItem, call int) (Payload, error) {
			return Payload{"is_reachable": "safe"}, nil
		},
		healthy: func(probe int) error {
			if probe < 2 {
				return errors.New("starting")
			}
			return nil
		},
	}
	sink := &recordingSink{}
	cfg := RunConfig{
		Concurrency: 1,
		MaxAttempts: 1,
		Health:      GateConfig{Enabled: true, MaxProbes: 10, Interval: time.Second, ProbeTimeout: time.Second},
	}

	svc := newTestService(t, backend, sink, nil, cfg, new([]time.Duration))
	record, err := svc.Run(context.Background(), items("a@x.com"))

	require.NoError(t, err)
	assert.Equal(t, 2, backend.probes)
	assert.Equal(t, 1, record.Successful)
}

func TestVerificationService_SinkFailureDoesNotFailRun(t *testing.T) {
	backend := &fakeBackend{respond: func(item WorkItem, call int) (Payload, error) {
		return Payload{"is_reachable": "safe"}, nil
	}}
	sink := &recordingSink{err: errors.New("disk full")}
	cfg := RunConfig{Concurrency: 3, MaxAttempts: 1}

	svc := newTestService(t, backend, sink, nil, cfg, new([]time.Duration))
	record, err := svc.Run(context.Background(), items("a@x.com", "b@x.com", "c@x.com"))

	require.NoError(t, err)
	assert.Equal(t, 3, record.Successful)
	assert.Len(t, sink.results, 3)
	assert.Len(t, sink.summaries, 1)
}

func TestVerificationService_InterruptedRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := &fakeBackend{respond: func(item WorkItem, call int) (Payload, error) {
		cancel()
		return Payload{"is_reachable": "safe"}, nil
	}}
	sink := &recordingSink{}
	cfg := RunConfig{Concurrency: 1, MaxAttempts: 1}

	svc := newTestService(t, backend, sink, nil, cfg, new([]time.Duration))
	record, err := svc.Run(ctx, items("a@x.com", "b@x.com", "c@x.com"))

	var incomplete *IncompleteRunError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 2, incomplete.Skipped)
	assert.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, record)
	assert.Equal(t, 1, record.Total)
	assert.Equal(t, 1, record.Successful)
	assert.Len(t, sink.results, 1)
	assert.Len(t, sink.summaries, 1)
}

// slowBackend takes latency per check and gives up early only when its ctx is done
type slowBackend struct {
	latency time.Duration
}

func (b slowBackend) CheckEmail(ctx context.Context, item WorkItem, timeout time.Duration) (Payload, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(b.latency):
		return Payload{"is_reachable": "safe"}, nil
	}
}

func (b slowBackend) CheckHealth(ctx context.Context, timeout time.Duration) error {
	return nil
}

func TestVerificationService_InterruptLetsInFlightItemsFinish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	sink := &recordingSink{}
	cfg := RunConfig{Concurrency: 2, MaxAttempts: 3, BaseDelay: time.Second}

	svc := newTestService(t, slowBackend{latency: 100 * time.Millisecond}, sink, nil, cfg, new([]time.Duration))
	record, err := svc.Run(ctx, items("a@x.com", "b@x.com", "c@x.com"))

	var incomplete *IncompleteRunError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.Skipped)

	require.NotNil(t, record)
	assert.Equal(t, 2, record.Total)
	assert.Equal(t, 2, record.Successful)
	assert.Equal(t, 0, record.Failed)
	assert.Equal(t, map[string]int{"safe": 2}, record.Classifications)

	require.Len(t, sink.results, 2)
	for _, r := range sink.results {
		assert.Empty(t, r.Error, r.Email)
		assert.Equal(t, "safe", r.Classification)
	}
}

func TestVerificationService_InterruptedWhileWaitingForBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &fakeBackend{
		respond: func(item WorkItem, call int) (Payload, error) {
			t.Fatal("no item may start after an interrupt")
			return nil, nil
		},
		healthy: func(probe int) error { return errors.New("connection refused") },
	}
	sink := &recordingSink{}
	cfg := RunConfig{
		Concurrency: 1,
		MaxAttempts: 1,
		Health:      GateConfig{Enabled: true, MaxProbes: 5, Interval: time.Second, ProbeTimeout: time.Second},
	}

	svc := newTestService(t, backend, sink, nil, cfg, new([]time.Duration))
	record, err := svc.Run(ctx, items("a@x.com", "b@x.com"))

	assert.Nil(t, record)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrBackendUnavailable)

	var incomplete *IncompleteRunError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 2, incomplete.Skipped)
	assert.Equal(t, 1, backend.probes)
}
