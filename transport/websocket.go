// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/worldsync/protocol"
	"github.com/luxfi/worldsync/utils/timer/mockable"
)

const writeBacklog = 64

var _ Conn = (*WebsocketConn)(nil)

// WebsocketConn adapts a websocket to the Conn contract. A single write
// pump preserves FIFO send order; the read loop correlates replies to
// pending requests and hands everything else to the handler.
type WebsocketConn struct {
	log      log.Logger
	clientID ids.ID
	ws       *websocket.Conn
	clock    mockable.Clock
	quality  *Quality

	writeCh chan []byte

	lock          sync.Mutex
	handler       protocol.Handler
	nextRequestID uint32
	pending       map[uint32]pendingRequest
	closed        bool
	closeErr      error

	closeOnce sync.Once
	startOnce sync.Once
	closedCh  chan struct{}
	done      sync.WaitGroup
}

type pendingRequest struct {
	reply *Reply
	// sentAt is set for heartbeat requests so the reply feeds the latency
	// estimate.
	sentAt time.Time
}

func NewWebsocket(logger log.Logger, clientID ids.ID, ws *websocket.Conn) *WebsocketConn {
	c := &WebsocketConn{
		log:      logger,
		clientID: clientID,
		ws:       ws,
		quality:  &Quality{},
		writeCh:  make(chan []byte, writeBacklog),
		handler:  protocol.NoopHandler{Log: logger},
		pending:  make(map[uint32]pendingRequest),
		closedCh: make(chan struct{}),
	}
	c.done.Add(1)
	go c.writePump()
	return c
}

// SetHandler installs the receiver for inbound non-reply payloads. It must
// be called before Start.
func (c *WebsocketConn) SetHandler(handler protocol.Handler) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.handler = handler
}

// Start begins reading from the peer. Kept separate from construction so
// the owner can finish wiring (session join, handler) without racing the
// peer's first payload.
func (c *WebsocketConn) Start() {
	c.startOnce.Do(func() {
		c.done.Add(1)
		go c.readLoop()
	})
}

func (c *WebsocketConn) Send(msg protocol.Message) error {
	return c.write(&protocol.Envelope{Payload: msg})
}

func (c *WebsocketConn) Request(msg protocol.Message) *Reply {
	reply := NewReply()

	c.lock.Lock()
	if c.closed {
		err := c.closeErr
		c.lock.Unlock()
		reply.Reject(err)
		return reply
	}
	c.nextRequestID++
	requestID := c.nextRequestID
	entry := pendingRequest{reply: reply}
	if _, ok := msg.(*protocol.Heartbeat); ok {
		entry.sentAt = c.clock.Time()
	}
	c.pending[requestID] = entry
	c.lock.Unlock()

	if err := c.write(&protocol.Envelope{RequestID: requestID, Payload: msg}); err != nil {
		c.lock.Lock()
		delete(c.pending, requestID)
		c.lock.Unlock()
		reply.Reject(err)
	}
	return reply
}

func (c *WebsocketConn) Latency() time.Duration {
	return c.quality.Latency()
}

func (c *WebsocketConn) Close(cause error) error {
	if cause == nil {
		cause = ErrClosed
	}
	c.closeOnce.Do(func() {
		c.lock.Lock()
		c.closed = true
		c.closeErr = cause
		pending := c.pending
		c.pending = make(map[uint32]pendingRequest)
		c.lock.Unlock()

		for _, entry := range pending {
			entry.reply.Reject(cause)
		}
		close(c.closedCh)
		_ = c.ws.Close()
	})
	return nil
}

// AwaitClosed blocks until both pumps have exited.
func (c *WebsocketConn) AwaitClosed() {
	c.done.Wait()
}

func (c *WebsocketConn) write(env *protocol.Envelope) error {
	data, err := protocol.Build(env)
	if err != nil {
		return err
	}
	select {
	case c.writeCh <- data:
		return nil
	case <-c.closedCh:
		c.lock.Lock()
		defer c.lock.Unlock()
		return c.closeErr
	}
}

func (c *WebsocketConn) writePump() {
	defer c.done.Done()
	for {
		select {
		case data := <-c.writeCh:
			if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
				c.log.Debug("websocket write failed",
					log.Stringer("clientID", c.clientID),
					log.Err(err),
				)
				c.Close(err)
				return
			}
		case <-c.closedCh:
			return
		}
	}
}

func (c *WebsocketConn) readLoop() {
	defer c.done.Done()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.Close(err)
			return
		}
		env, err := protocol.Parse(data)
		if err != nil {
			c.log.Warn("dropping unparseable payload",
				log.Stringer("clientID", c.clientID),
				log.Err(err),
			)
			continue
		}
		c.receive(env)
	}
}

func (c *WebsocketConn) receive(env *protocol.Envelope) {
	if env.ReplyTo != 0 {
		c.lock.Lock()
		entry, ok := c.pending[env.ReplyTo]
		delete(c.pending, env.ReplyTo)
		c.lock.Unlock()

		if !ok {
			c.log.Debug("dropping reply with no pending request",
				log.Stringer("clientID", c.clientID),
				log.String("messageType", env.Payload.Type()),
			)
			return
		}
		if !entry.sentAt.IsZero() {
			c.quality.RecordRTT(c.clock.Time().Sub(entry.sentAt))
		}
		entry.reply.Resolve(env.Payload)
		return
	}

	c.lock.Lock()
	handler := c.handler
	c.lock.Unlock()

	var err error
	switch msg := env.Payload.(type) {
	case *protocol.SyncRequest:
		err = handler.HandleSyncRequest(c.clientID, msg)
	case *protocol.ActorUpdate:
		err = handler.HandleActorUpdate(c.clientID, msg)
	case *protocol.Trace:
		err = handler.HandleTrace(c.clientID, msg)
	case *protocol.Heartbeat:
		// The peer is probing us; answer immediately.
		err = c.write(&protocol.Envelope{ReplyTo: env.RequestID, Payload: &protocol.HeartbeatReply{
			ServerTime: msg.ServerTime,
		}})
	default:
		c.log.Debug("dropping unexpected payload",
			log.Stringer("clientID", c.clientID),
			log.String("messageType", env.Payload.Type()),
		)
	}
	if err != nil {
		c.log.Warn("inbound payload handler failed",
			log.Stringer("clientID", c.clientID),
			log.String("messageType", env.Payload.Type()),
			log.Err(err),
		)
	}
}
