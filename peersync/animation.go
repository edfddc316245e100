// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/worldsync/protocol"
)

var (
	errNoAuthoritativePeer = errors.New("no authoritative peer available")
	errUnexpectedReply     = errors.New("unexpected reply payload")
)

// syncAnimations asks the authoritative peer for its current animation
// state and forwards it to the joining peer with each animation's clock
// biased forward by the estimated one-way delay of both links, so playback
// starts at the authority's current playhead.
//
// TODO: the sync still depends on a peer to report canonical animation
// state; a disconnect here fails the joining peer's whole sync.
func (p *Protocol) syncAnimations(ctx context.Context) error {
	authority := p.sess.AuthoritativeClient()
	if authority == nil || authority.ID() == p.client.ID() {
		return errNoAuthoritativePeer
	}

	reply := authority.Conn().Request(&protocol.SyncAnimations{})
	msg, err := reply.Await(ctx)
	if err != nil {
		return fmt.Errorf("requesting animation state from authoritative peer: %w", err)
	}
	states, ok := msg.(*protocol.SyncAnimations)
	if !ok {
		return fmt.Errorf("%w: %T", errUnexpectedReply, msg)
	}

	offset := oneWaySeconds(authority.Conn().Latency()) + oneWaySeconds(p.client.Conn().Latency())
	for i := range states.AnimationStates {
		states.AnimationStates[i].Time += offset
	}

	p.log.Debug("reconciled animation state",
		log.Stringer("clientID", p.client.ID()),
		log.Stringer("authorityID", authority.ID()),
		log.Int("animations", len(states.AnimationStates)),
		log.Reflect("offsetSeconds", offset),
	)

	// sync-animations is explicitly allowed during its own stage; forward
	// through the raw connection.
	return p.client.Conn().Send(states)
}

// oneWaySeconds converts a round-trip latency estimate to an estimated
// one-way delay in seconds.
func oneWaySeconds(rtt time.Duration) float64 {
	ms := float64(rtt) / float64(time.Millisecond)
	return ms / 2000
}
