// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session groups the peers sharing one application instance and the
// cache of scene traffic used to catch up joining peers.
package session

import (
	"sync"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/worldsync/transport"
)

// Session is a group of peers sharing one application instance.
type Session struct {
	log   log.Logger
	id    ids.ID
	conn  transport.Conn
	cache *Cache

	// peerAuthoritative selects the multi-peer mode in which joining peers
	// are caught up by replaying cached state. When false the application
	// itself re-drives new peers and the staged replay is skipped.
	peerAuthoritative bool

	mu        sync.RWMutex
	clients   map[ids.ID]*Client
	nextOrder uint64
}

func New(logger log.Logger, id ids.ID, conn transport.Conn, peerAuthoritative bool) *Session {
	return &Session{
		log:               logger,
		id:                id,
		conn:              conn,
		cache:             NewCache(),
		peerAuthoritative: peerAuthoritative,
		clients:           make(map[ids.ID]*Client),
	}
}

func (s *Session) ID() ids.ID {
	return s.id
}

// Conn is the application-facing channel, used to echo replies the
// application awaits while a lone peer is mid-sync.
func (s *Session) Conn() transport.Conn {
	return s.conn
}

func (s *Session) Cache() *Cache {
	return s.cache
}

func (s *Session) PeerAuthoritative() bool {
	return s.peerAuthoritative
}

// Join admits a peer, assigns its join order, and re-derives authority.
func (s *Session) Join(clientID ids.ID, conn transport.Conn) *Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	client := &Client{
		id:    clientID,
		conn:  conn,
		order: s.nextOrder,
	}
	s.nextOrder++
	s.clients[clientID] = client
	s.electAuthority()

	s.log.Info("client joined session",
		log.Stringer("sessionID", s.id),
		log.Stringer("clientID", clientID),
		log.Reflect("order", client.order),
	)
	return client
}

// Leave removes a disconnected peer and re-derives authority.
func (s *Session) Leave(clientID ids.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[clientID]; !ok {
		return
	}
	delete(s.clients, clientID)
	s.electAuthority()

	s.log.Info("client left session",
		log.Stringer("sessionID", s.id),
		log.Stringer("clientID", clientID),
	)
}

// AuthoritativeClient returns the client with the lowest join order, or nil
// if the session is empty.
func (s *Session) AuthoritativeClient() *Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var authority *Client
	for _, client := range s.clients {
		if authority == nil || client.order < authority.order {
			authority = client
		}
	}
	return authority
}

// Clients returns the current client set in join order.
func (s *Session) Clients() []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		out = append(out, client)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].order < out[j-1].order; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// electAuthority marks the lowest-order client authoritative. Callers hold
// s.mu.
func (s *Session) electAuthority() {
	var authority *Client
	for _, client := range s.clients {
		if authority == nil || client.order < authority.order {
			authority = client
		}
	}
	for _, client := range s.clients {
		client.setAuthoritative(client == authority)
	}
}
