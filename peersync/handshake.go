// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"context"
	"fmt"

	"github.com/luxfi/worldsync/protocol"
)

// calibrationHeartbeats is the size of the round-trip burst used to measure
// link quality before sync begins.
const calibrationHeartbeats = 10

// calibrate runs the startup burst: a fixed number of heartbeat round
// trips, awaited one at a time so each sample measures a full round trip.
// The connection folds the observed RTTs into its latency estimate. Any
// failure drops the peer.
func (p *Protocol) calibrate(ctx context.Context) error {
	conn := p.client.Conn()
	for i := 0; i < calibrationHeartbeats; i++ {
		reply := conn.Request(&protocol.Heartbeat{
			ServerTime: p.clock.Time().UnixMicro(),
		})
		if _, err := reply.Await(ctx); err != nil {
			return fmt.Errorf("rtt calibration: %w", err)
		}
	}
	return nil
}
