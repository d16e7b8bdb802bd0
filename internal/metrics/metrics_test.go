package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Init runs at most once per process, so every assertion lives in this one
// test against a single registry.
func TestRecording(t *testing.T) {
	// Before Init every recorder is a no-op.
	require.NotPanics(t, func() {
		ObserveSave(ResultSuccess, "", time.Millisecond)
		IncDelete(ResultSuccess)
		IncNotify(ResultError)
		IncValidationFailure("component")
	})

	reg := prometheus.NewRegistry()
	Init(reg)
	Init(reg)

	ObserveSave(ResultSuccess, "", 10*time.Millisecond)
	ObserveSave(ResultError, "history", 5*time.Millisecond)
	IncDelete("")
	IncNotify(ResultError)
	IncValidationFailure("")
	IncValidationFailure("component")

	assert.InDelta(t, 1, testutil.ToFloat64(saveTotal.WithLabelValues(ResultSuccess, "none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(saveTotal.WithLabelValues(ResultError, "history")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(deleteTotal.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(notifyTotal.WithLabelValues(ResultError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(validationFail.WithLabelValues("unknown")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(validationFail.WithLabelValues("component")), 0)

	count, err := testutil.GatherAndCount(reg, metricPrefix+"maintenance_save_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one histogram series per result")
}
