package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerificationService is the core service running a verification batch
type VerificationService struct {
	backend   BackendClient
	results   ResultSink
	summaries SummarySink
	observer  Observer
	logger    *zap.Logger
	cfg       RunConfig
	sleep     SleepFunc
	now       func() time.Time
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	backend BackendClient,
	results ResultSink,
	summaries SummarySink,
	observer Observer,
	logger *zap.Logger,
	cfg RunConfig,
) *VerificationService {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &VerificationService{
		backend:   backend,
		results:   results,
		summaries: summaries,
		observer:  observer,
		logger:    logger,
		cfg:       cfg,
		sleep:     sleepWithContext,
		now:       time.Now,
	}
}

// Run verifies every item and returns the run summary. Per-item failures are
// recorded in the results; only a configuration problem or an unavailable
// backend fail the run before any item is started.
func (s *VerificationService) Run(ctx context.Context, items []WorkItem) (*SummaryRecord, error) {
	if len(items) == 0 {
		return nil, &ConfigurationError{Field: "emails", Reason: "must contain at least one address"}
	}

	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	startedAt := s.now()

	// Wait for the backend before admitting any work
	if s.cfg.Health.Enabled {
		gate := NewAvailabilityGate(s.backend, s.cfg.Health, logger)
		gate.sleep = s.sleep
		if !gate.AwaitReady(ctx) {
			if err := ctx.Err(); err != nil {
				return nil, &IncompleteRunError{Skipped: len(items), Err: err}
			}
			return nil, &BackendUnavailableError{Probes: s.cfg.Health.MaxProbes}
		}
	}

	logger.Info("Starting verification",
		zap.Int("emails", len(items)),
		zap.Int("concurrency", s.cfg.Concurrency),
		zap.Int("max_attempts", s.cfg.MaxAttempts))

	policy := RetryPolicy{
		MaxAttempts: s.cfg.MaxAttempts,
		BaseDelay:   s.cfg.BaseDelay,
		Sleep:       s.sleep,
	}

	op := func(ctx context.Context, item WorkItem) ItemResult {
		s.observer.ItemStarted(item)
		return policy.Do(ctx, item, func(ctx context.Context, attempt int) (Payload, error) {
			start := time.Now()
			payload, err := s.backend.CheckEmail(ctx, item, s.cfg.AttemptTimeout)
			s.observer.AttemptFinished(item, attempt, err, time.Since(start))
			if err != nil {
				logger.Debug("Verification attempt failed",
					zap.String("email", item.Email),
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", policy.MaxAttempts),
					zap.Error(err))
			}
			return payload, err
		})
	}

	// Sinks keep working after an interrupt so finished items are not lost
	sinkCtx := context.WithoutCancel(ctx)

	emit := func(r ItemResult) {
		s.observer.ItemFinished(r)
		s.logResult(logger, r)
		if err := s.results.SaveResult(sinkCtx, NewResultRecord(runID, r, s.now())); err != nil {
			logger.Error("Failed to save result", zap.String("email", r.Item.Email), zap.Error(err))
		}
	}

	outcome := RunBatch(ctx, items, s.cfg.Concurrency, op, emit)

	record := &SummaryRecord{
		RunID:      runID,
		RunSummary: Summarize(outcome.Results),
		StartedAt:  startedAt,
		FinishedAt: s.now(),
	}
	if err := s.summaries.SaveSummary(sinkCtx, record); err != nil {
		logger.Error("Failed to save run summary", zap.Error(err))
	}

	logger.Info("Finished verification",
		zap.Int("total", record.Total),
		zap.Int("successful", record.Successful),
		zap.Int("failed", record.Failed),
		zap.Duration("duration", record.Duration()))

	if outcome.Skipped > 0 {
		logger.Warn("Run interrupted before all emails were started", zap.Int("skipped", outcome.Skipped))
		return record, &IncompleteRunError{Skipped: outcome.Skipped, Err: ctx.Err()}
	}

	return record, nil
}

// logResult writes one line per completed item
func (s *VerificationService) logResult(logger *zap.Logger, r ItemResult) {
	if r.Err != nil {
		logger.Error("Failed to verify email",
			zap.String("email", r.Item.Email),
			zap.Int("attempts", r.Attempts),
			zap.Error(r.Err))
		return
	}

	classification, _ := r.Payload.Classification()
	logger.Info("Verified email",
		zap.String("email", r.Item.Email),
		zap.String("is_reachable", classification),
		zap.Int("attempts", r.Attempts))
}
