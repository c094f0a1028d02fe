// Package kothmetrics defines the metrics recorded by the KOTH module.
package kothmetrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// KothMetrics records operation and contest metrics.
type KothMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	RecordSubmissionAccepted(ctx context.Context, kind string)
	RecordBattleResolved(ctx context.Context, tiebreaker bool)
	RecordPanelRefresh(ctx context.Context, outcome string)
}

type prometheusMetrics struct {
	attempts    *prometheus.CounterVec
	successes   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	battles     *prometheus.CounterVec
	panels      *prometheus.CounterVec
}

// NewPrometheus registers the KOTH collectors on reg.
func NewPrometheus(reg prometheus.Registerer) (KothMetrics, error) {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "koth",
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "koth",
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "koth",
			Name:      "operation_failures_total",
			Help:      "Service operations that returned an error or panicked.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "koth",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "koth",
			Name:      "submissions_accepted_total",
			Help:      "Accepted attachments by classification.",
		}, []string{"kind"}),
		battles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "koth",
			Name:      "battles_resolved_total",
			Help:      "Resolved battle votes.",
		}, []string{"tiebreaker"}),
		panels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "koth",
			Name:      "panel_refresh_total",
			Help:      "Panel re-render attempts by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.successes, m.failures, m.durations, m.submissions, m.battles, m.panels} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordSubmissionAccepted(_ context.Context, kind string) {
	m.submissions.WithLabelValues(kind).Inc()
}

func (m *prometheusMetrics) RecordBattleResolved(_ context.Context, tiebreaker bool) {
	m.battles.WithLabelValues(strconv.FormatBool(tiebreaker)).Inc()
}

func (m *prometheusMetrics) RecordPanelRefresh(_ context.Context, outcome string) {
	m.panels.WithLabelValues(outcome).Inc()
}

type noop struct{}

// NewNoop returns metrics that discard everything.
func NewNoop() KothMetrics { return noop{} }

func (noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (noop) RecordOperationFailure(context.Context, string, string)                 {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordSubmissionAccepted(context.Context, string)                       {}
func (noop) RecordBattleResolved(context.Context, bool)                             {}
func (noop) RecordPanelRefresh(context.Context, string)                             {}
