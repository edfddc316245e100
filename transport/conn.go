// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport carries protocol payloads between the server and one
// peer. Implementations preserve FIFO send order and report link quality.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/luxfi/worldsync/protocol"
)

var (
	ErrClosed         = errors.New("connection closed")
	ErrReplyDiscarded = errors.New("reply discarded")
)

// Conn is one peer's ordered message channel.
type Conn interface {
	// Send forwards a payload without expecting a reply.
	Send(msg protocol.Message) error

	// Request forwards a payload and returns the pending reply. The reply
	// is rejected if the connection closes first.
	Request(msg protocol.Message) *Reply

	// Latency is the smoothed round-trip estimate for this link.
	Latency() time.Duration

	// Close tears the connection down, rejecting all pending replies with
	// the given cause.
	Close(cause error) error
}

type result struct {
	msg protocol.Message
	err error
}

// Reply is a pending reply continuation. It is resolved or rejected exactly
// once; later calls are no-ops.
type Reply struct {
	once sync.Once
	ch   chan result
}

func NewReply() *Reply {
	return &Reply{ch: make(chan result, 1)}
}

// Resolve completes the reply with a payload. A nil payload is legal and
// means the request was observed but produced no value.
func (r *Reply) Resolve(msg protocol.Message) {
	r.once.Do(func() {
		r.ch <- result{msg: msg}
	})
}

// Reject completes the reply with an error.
func (r *Reply) Reject(err error) {
	r.once.Do(func() {
		r.ch <- result{err: err}
	})
}

// Await blocks until the reply completes or ctx is done.
func (r *Reply) Await(ctx context.Context) (protocol.Message, error) {
	select {
	case res := <-r.ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
