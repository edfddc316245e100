// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"sync"
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/worldsync/protocol"
)

var _ Conn = (*Pipe)(nil)

// Pipe is an in-memory Conn. Sent payloads are recorded in order and
// requests are answered synchronously by the responder, which keeps traces
// deterministic. It backs tests and local (same-process) peers.
type Pipe struct {
	mu        sync.Mutex
	quality   *Quality
	responder func(protocol.Message) (protocol.Message, error)
	trace     []protocol.Message
	closed    bool
	closeErr  error
}

func NewPipe() *Pipe {
	return &Pipe{quality: &Quality{}}
}

// SetResponder installs the function that answers requests. Without one,
// requests are answered with a payload-appropriate empty reply.
func (p *Pipe) SetResponder(responder func(protocol.Message) (protocol.Message, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responder = responder
}

// SetLatency pins the link's round-trip estimate.
func (p *Pipe) SetLatency(rtt time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q := &Quality{}
	q.RecordRTT(rtt)
	p.quality = q
}

func (p *Pipe) Send(msg protocol.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.closeErr
	}
	p.trace = append(p.trace, msg)
	return nil
}

func (p *Pipe) Request(msg protocol.Message) *Reply {
	reply := NewReply()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		reply.Reject(p.closeErr)
		return reply
	}
	p.trace = append(p.trace, msg)

	responder := p.responder
	if responder == nil {
		responder = defaultResponder
	}
	res, err := responder(msg)
	if err != nil {
		reply.Reject(err)
	} else {
		reply.Resolve(res)
	}
	return reply
}

func (p *Pipe) Latency() time.Duration {
	p.mu.Lock()
	q := p.quality
	p.mu.Unlock()
	return q.Latency()
}

func (p *Pipe) Close(cause error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	if cause == nil {
		cause = ErrClosed
	}
	p.closed = true
	p.closeErr = cause
	return nil
}

// Trace returns a copy of every payload sent so far, in send order.
func (p *Pipe) Trace() []protocol.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]protocol.Message, len(p.trace))
	copy(out, p.trace)
	return out
}

// TraceTypes returns the discriminants of the trace, in send order.
func (p *Pipe) TraceTypes() []string {
	msgs := p.Trace()
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Type()
	}
	return out
}

func defaultResponder(msg protocol.Message) (protocol.Message, error) {
	switch req := msg.(type) {
	case *protocol.Heartbeat:
		return &protocol.HeartbeatReply{ServerTime: req.ServerTime}, nil
	case *protocol.LoadAsset:
		return &protocol.AssetsLoaded{ContainerID: req.ContainerID}, nil
	case *protocol.CreateActor:
		return &protocol.ObjectSpawned{ActorIDs: []ids.ID{req.ActorID}, Result: "success"}, nil
	case *protocol.CreateFromLibrary:
		return &protocol.ObjectSpawned{ActorIDs: []ids.ID{req.ActorID}, Result: "success"}, nil
	case *protocol.SyncAnimations:
		return &protocol.SyncAnimations{}, nil
	default:
		return &protocol.OperationResult{ResultCode: "success"}, nil
	}
}
