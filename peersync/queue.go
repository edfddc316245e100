// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"sync"

	"github.com/luxfi/worldsync/protocol"
	"github.com/luxfi/worldsync/transport"
)

// queuedMessage is one deferred outbound message and its pending reply, if
// the sender expects one.
type queuedMessage struct {
	msg   protocol.Message
	reply *transport.Reply
}

// messageQueue is the per-peer FIFO of deferred outbound messages. The
// router appends; the sync driver drains.
type messageQueue struct {
	lock    sync.Mutex
	entries []queuedMessage
}

func newMessageQueue() *messageQueue {
	return &messageQueue{}
}

func (q *messageQueue) Push(msg protocol.Message, reply *transport.Reply) {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.entries = append(q.entries, queuedMessage{msg: msg, reply: reply})
}

func (q *messageQueue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return len(q.entries)
}

// Filter removes and returns the entries matching the predicate, preserving
// FIFO order among both the taken and the remaining entries.
func (q *messageQueue) Filter(predicate func(protocol.Message) bool) []queuedMessage {
	q.lock.Lock()
	defer q.lock.Unlock()

	var taken []queuedMessage
	remaining := q.entries[:0]
	for _, entry := range q.entries {
		if predicate(entry.msg) {
			taken = append(taken, entry)
		} else {
			remaining = append(remaining, entry)
		}
	}
	q.entries = remaining
	return taken
}

// RejectAll drops every queued message, rejecting pending replies so their
// awaiters observe the disconnect.
func (q *messageQueue) RejectAll(err error) {
	q.lock.Lock()
	entries := q.entries
	q.entries = nil
	q.lock.Unlock()

	for _, entry := range entries {
		if entry.reply != nil {
			entry.reply.Reject(err)
		}
	}
}
