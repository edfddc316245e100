// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"net/http"

	"github.com/luxfi/metric"
)

type serverMetrics struct {
	requests metric.CounterVec
	inflight metric.Gauge
}

func newMetrics(registry metric.Registry) (*serverMetrics, error) {
	metricsInstance := metric.NewWithRegistry("api", registry)

	m := &serverMetrics{
		requests: metricsInstance.NewCounterVec(
			"requests_total",
			"Total number of API requests",
			[]string{"method"},
		),
		inflight: metricsInstance.NewGauge(
			"requests_inflight",
			"Number of inflight API requests",
		),
	}
	return m, nil
}

func (m *serverMetrics) wrapHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requests.With(metric.Labels{"method": r.Method}).Inc()
		m.inflight.Inc()
		defer m.inflight.Dec()

		handler.ServeHTTP(w, r)
	})
}
