// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"sync"
	"time"
)

// Quality tracks link quality from observed heartbeat round trips. The
// smoothed estimate follows the usual SRTT recurrence: each new sample
// contributes 1/8 of its weight.
type Quality struct {
	mu      sync.RWMutex
	latency time.Duration
	samples int
}

// RecordRTT folds one observed round trip into the estimate.
func (q *Quality) RecordRTT(rtt time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.samples == 0 {
		q.latency = rtt
	} else {
		q.latency = (7*q.latency + rtt) / 8
	}
	q.samples++
}

// Latency returns the smoothed round-trip estimate. Zero until the first
// sample arrives.
func (q *Quality) Latency() time.Duration {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.latency
}

// LatencyMS returns the estimate in milliseconds.
func (q *Quality) LatencyMS() float64 {
	return float64(q.Latency()) / float64(time.Millisecond)
}

// Samples returns the number of round trips observed so far.
func (q *Quality) Samples() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.samples
}
