// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"github.com/luxfi/metric"

	utilmetric "github.com/luxfi/worldsync/utils/metric"
	"github.com/luxfi/worldsync/utils/wrappers"
)

type syncMetrics struct {
	routed         metric.CounterVec
	queued         metric.Gauge
	syncsStarted   metric.Counter
	syncsCompleted metric.Counter
	syncsFailed    metric.Counter
	syncDuration   utilmetric.Averager
}

func newMetrics(registry metric.Registry) (*syncMetrics, error) {
	metricsInstance := metric.NewWithRegistry("peersync", registry)

	errs := wrappers.Errs{}
	m := &syncMetrics{
		routed: metricsInstance.NewCounterVec(
			"routed_messages",
			"Number of outbound messages classified by the sync router",
			[]string{"handling"},
		),
		queued: metricsInstance.NewGauge(
			"queued_messages",
			"Number of outbound messages currently deferred",
		),
		syncsStarted: metricsInstance.NewCounter(
			"syncs_started",
			"Number of peer syncs started",
		),
		syncsCompleted: metricsInstance.NewCounter(
			"syncs_completed",
			"Number of peer syncs completed",
		),
		syncsFailed: metricsInstance.NewCounter(
			"syncs_failed",
			"Number of peer syncs that failed",
		),
		syncDuration: utilmetric.NewAveragerWithErrs(
			"sync_duration",
			"seconds spent syncing one peer",
			registry,
			&errs,
		),
	}
	return m, errs.Err
}

func (m *syncMetrics) observeRouted(handling Handling) {
	if m == nil {
		return
	}
	m.routed.With(metric.Labels{"handling": handling.String()}).Inc()
}

func (m *syncMetrics) observeQueueLen(n int) {
	if m == nil {
		return
	}
	m.queued.Set(float64(n))
}
