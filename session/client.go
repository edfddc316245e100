// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"sync"

	"github.com/luxfi/ids"

	"github.com/luxfi/worldsync/transport"
)

// Client is one remote peer rendering the shared scene.
type Client struct {
	id   ids.ID
	conn transport.Conn

	mu            sync.RWMutex
	order         uint64
	authoritative bool
}

func (c *Client) ID() ids.ID {
	return c.id
}

func (c *Client) Conn() transport.Conn {
	return c.conn
}

// Order is the client's join index. Lower joined earlier.
func (c *Client) Order() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order
}

// Authoritative reports whether this client currently holds session
// authority (lowest join order among connected clients).
func (c *Client) Authoritative() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authoritative
}

func (c *Client) setAuthoritative(authoritative bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative = authoritative
}
