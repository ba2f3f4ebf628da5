package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mikey/email-verifier/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "timeout", Outcome(&core.TimeoutError{Op: "check email", Err: context.DeadlineExceeded}))
	assert.Equal(t, "transport", Outcome(&core.TransportError{Op: "check email", Err: errors.New("refused")}))
	assert.Equal(t, "backend_error", Outcome(&core.BackendError{StatusCode: 500}))
	assert.Equal(t, "other", Outcome(errors.New("decode")))
}

func TestRecorder(t *testing.T) {
	recorder := NewRecorder(prometheus.NewRegistry())
	item := core.WorkItem{Email: "a@x.com"}

	recorder.ItemStarted(item)
	recorder.ItemStarted(item)
	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.inFlight))

	recorder.AttemptFinished(item, 1, &core.TimeoutError{Op: "check email"}, 30*time.Millisecond)
	recorder.AttemptFinished(item, 2, nil, 40*time.Millisecond)
	recorder.ItemFinished(core.ItemResult{Item: item, Payload: core.Payload{"is_reachable": "safe"}, Attempts: 2})
	recorder.ItemFinished(core.ItemResult{Item: item, Err: errors.New("boom"), Attempts: 3})

	assert.Equal(t, 0.0, testutil.ToFloat64(recorder.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.attempts.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.attempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.items.WithLabelValues("successful")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.items.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.classifications.WithLabelValues("safe")))

	families, err := recorder.Registry().Gather()
	require.NoError(t, err)
	var samples uint64
	for _, family := range families {
		if family.GetName() == "email_verifier_attempt_latency_seconds" {
			samples = family.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), samples)
}

func TestRecorder_Push(t *testing.T) {
	var path, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	recorder := NewRecorder(prometheus.NewRegistry())
	recorder.ItemStarted(core.WorkItem{})

	require.NoError(t, recorder.Push(context.Background(), server.URL, "email_verifier"))
	assert.True(t, strings.HasPrefix(path, "/metrics/job/email_verifier"), path)
	assert.NotEmpty(t, body)
}
