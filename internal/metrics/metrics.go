package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/email-verifier/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder is a Prometheus implementation of the core Observer
type Recorder struct {
	registry *prometheus.Registry

	attempts        *prometheus.CounterVec
	items           *prometheus.CounterVec
	classifications *prometheus.CounterVec
	inFlight        prometheus.Gauge
	attemptLatency  prometheus.Histogram
}

// NewRecorder registers the verifier metrics on reg
func NewRecorder(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// Attempts by outcome (success, timeout, transport, backend_error, other)
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "email_verifier_attempts_total",
				Help: "Total number of verification attempts",
			},
			[]string{"outcome"},
		),

		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "email_verifier_items_total",
				Help: "Total number of emails that reached a terminal result",
			},
			[]string{"status"},
		),

		classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "email_verifier_classifications_total",
				Help: "Verified emails by reachability verdict",
			},
			[]string{"is_reachable"},
		),

		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "email_verifier_in_flight",
				Help: "Number of emails currently being verified",
			},
		),

		attemptLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "email_verifier_attempt_latency_seconds",
				Help:    "Verification attempt latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
	}
}

// AttemptFinished records one backend call
func (r *Recorder) AttemptFinished(item core.WorkItem, attempt int, err error, latency time.Duration) {
	r.attempts.WithLabelValues(Outcome(err)).Inc()
	r.attemptLatency.Observe(latency.Seconds())
}

// ItemStarted records an item entering the in-flight set
func (r *Recorder) ItemStarted(item core.WorkItem) {
	r.inFlight.Inc()
}

// ItemFinished records an item leaving the in-flight set
func (r *Recorder) ItemFinished(result core.ItemResult) {
	r.inFlight.Dec()

	if !result.Succeeded() {
		r.items.WithLabelValues("failed").Inc()
		return
	}
	r.items.WithLabelValues("successful").Inc()
	if c, ok := result.Payload.Classification(); ok {
		r.classifications.WithLabelValues(c).Inc()
	}
}

// Registry returns the registry the metrics live in
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push sends the current metric values to a Prometheus Pushgateway
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

// Outcome maps an attempt error onto a metric label
func Outcome(err error) string {
	var (
		timeoutErr   *core.TimeoutError
		transportErr *core.TransportError
		backendErr   *core.BackendError
	)

	switch {
	case err == nil:
		return "success"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &backendErr):
		return "backend_error"
	default:
		return "other"
	}
}
