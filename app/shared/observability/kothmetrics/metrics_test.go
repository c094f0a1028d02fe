package kothmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheus(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordOperationAttempt(ctx, "AdvanceQueue", "KothService")
	m.RecordOperationAttempt(ctx, "AdvanceQueue", "KothService")
	m.RecordOperationSuccess(ctx, "AdvanceQueue", "KothService")
	m.RecordOperationDuration(ctx, "AdvanceQueue", "KothService", 20*time.Millisecond)
	m.RecordSubmissionAccepted(ctx, "koth")
	m.RecordBattleResolved(ctx, true)

	pm := m.(*prometheusMetrics)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.attempts.WithLabelValues("AdvanceQueue", "KothService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.successes.WithLabelValues("AdvanceQueue", "KothService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.submissions.WithLabelValues("koth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.battles.WithLabelValues("true")))
}

func TestPrometheusMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}
