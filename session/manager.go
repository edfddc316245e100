// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"sync"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/worldsync/transport"
)

// Manager tracks the live sessions of one runtime instance.
type Manager struct {
	log log.Logger

	// peerAuthoritative is the mode applied to sessions the manager
	// creates.
	peerAuthoritative bool

	mu       sync.RWMutex
	sessions map[ids.ID]*Session
}

func NewManager(logger log.Logger, peerAuthoritative bool) *Manager {
	return &Manager{
		log:               logger,
		peerAuthoritative: peerAuthoritative,
		sessions:          make(map[ids.ID]*Session),
	}
}

// GetOrCreate returns the session with the given id, creating it on first
// use. Sessions created here have no app-facing conn until Attach is
// called.
func (m *Manager) GetOrCreate(sessionID ids.ID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[sessionID]; ok {
		return sess
	}
	sess := New(m.log, sessionID, nil, m.peerAuthoritative)
	m.sessions[sessionID] = sess
	return sess
}

// Attach binds the application-facing connection to an existing or new
// session.
func (m *Manager) Attach(sessionID ids.ID, conn transport.Conn) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := &Session{
		log:               m.log,
		id:                sessionID,
		conn:              conn,
		cache:             NewCache(),
		peerAuthoritative: m.peerAuthoritative,
		clients:           make(map[ids.ID]*Client),
	}
	if existing, ok := m.sessions[sessionID]; ok {
		// Keep the established cache and client set; only the app conn
		// changes.
		sess.cache = existing.cache
		sess.clients = existing.clients
		sess.nextOrder = existing.nextOrder
	}
	m.sessions[sessionID] = sess
	return sess
}

func (m *Manager) Get(sessionID ids.ID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	return sess, ok
}

// Sessions returns the live sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

// Remove drops an empty session.
func (m *Manager) Remove(sessionID ids.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
