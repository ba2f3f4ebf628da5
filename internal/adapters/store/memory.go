package store

import (
	"context"
	"sync"

	"github.com/mikey/email-verifier/internal/core"
	"go.uber.org/zap"
)

// MemoryStore keeps results and summaries in process memory. It is the default
// store for one-off runs where the result lines and console report are the only
// output needed.
type MemoryStore struct {
	mu        sync.RWMutex
	results   []*core.ResultRecord
	summaries []*core.SummaryRecord
	logger    *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger: logger,
	}
}

// SaveResult appends a result record
func (s *MemoryStore) SaveResult(ctx context.Context, record *core.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, record)
	return nil
}

// SaveSummary appends a summary record
func (s *MemoryStore) SaveSummary(ctx context.Context, record *core.SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries = append(s.summaries, record)
	s.logger.Debug("Stored run summary in memory",
		zap.String("run_id", record.RunID),
		zap.Int("results", len(s.results)))
	return nil
}

// Results returns a copy of the stored result records in arrival order
func (s *MemoryStore) Results() []*core.ResultRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*core.ResultRecord(nil), s.results...)
}

// Summaries returns a copy of the stored summary records
func (s *MemoryStore) Summaries() []*core.SummaryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*core.SummaryRecord(nil), s.summaries...)
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}
