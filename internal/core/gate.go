package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HealthChecker is the part of the backend the availability gate needs
type HealthChecker interface {
	CheckHealth(ctx context.Context, timeout time.Duration) error
}

// AvailabilityGate polls the backend health endpoint before any work is admitted
type AvailabilityGate struct {
	checker HealthChecker
	cfg     GateConfig
	logger  *zap.Logger
	sleep   SleepFunc
}

// NewAvailabilityGate creates a new availability gate
func NewAvailabilityGate(checker HealthChecker, cfg GateConfig, logger *zap.Logger) *AvailabilityGate {
	return &AvailabilityGate{
		checker: checker,
		cfg:     cfg,
		logger:  logger,
		sleep:   sleepWithContext,
	}
}

// AwaitReady probes up to MaxProbes times, sleeping Interval between probes.
// It returns true on the first healthy probe and false once the budget is spent.
func (g *AvailabilityGate) AwaitReady(ctx context.Context) bool {
	maxProbes := g.cfg.MaxProbes
	if maxProbes < 1 {
		maxProbes = 1
	}

	for probe := 1; probe <= maxProbes; probe++ {
		err := g.checker.CheckHealth(ctx, g.cfg.ProbeTimeout)
		if err == nil {
			g.logger.Info("Verification backend is ready", zap.Int("probe", probe))
			return true
		}

		g.logger.Warn("Verification backend not ready",
			zap.Int("probe", probe),
			zap.Int("max_probes", maxProbes),
			zap.Error(err))

		if probe == maxProbes {
			break
		}
		if err := g.sleep(ctx, g.cfg.Interval); err != nil {
			g.logger.Warn("Stopped waiting for backend", zap.Error(err))
			return false
		}
	}

	return false
}
