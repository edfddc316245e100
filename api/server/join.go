// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/worldsync/peersync"
	"github.com/luxfi/worldsync/protocol"
	"github.com/luxfi/worldsync/session"
	"github.com/luxfi/worldsync/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleJoin upgrades a peer's connection and admits it to the requested
// session. Sync starts when the peer sends its sync-request.
func (s *server) handleJoin(w http.ResponseWriter, r *http.Request) {
	sessionID, err := ids.FromString(mux.Vars(r)["session"])
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	clientID, err := ids.FromString(r.URL.Query().Get("client"))
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed",
			log.Stringer("sessionID", sessionID),
			log.Err(err),
		)
		return
	}

	conn := transport.NewWebsocket(s.log, clientID, ws)
	sess := s.sessions.GetOrCreate(sessionID)
	client := sess.Join(clientID, conn)
	conn.SetHandler(&syncStarter{
		log:      s.log,
		sess:     sess,
		client:   client,
		registry: s.registry,
	})
	conn.Start()
}

var _ protocol.Handler = (*syncStarter)(nil)

// syncStarter hands a freshly joined peer to the sync protocol on its first
// sync-request.
type syncStarter struct {
	log      log.Logger
	sess     *session.Session
	client   *session.Client
	registry metric.Registry

	once sync.Once
}

func (st *syncStarter) HandleSyncRequest(clientID ids.ID, _ *protocol.SyncRequest) error {
	st.once.Do(func() {
		go func() {
			proto, err := peersync.New(st.log, st.sess, st.client, st.registry)
			if err == nil {
				err = proto.Run(context.Background())
			}
			if err != nil {
				st.sess.Leave(clientID)
				_ = st.client.Conn().Close(err)
			}
		}()
	})
	return nil
}

func (st *syncStarter) HandleActorUpdate(clientID ids.ID, _ *protocol.ActorUpdate) error {
	// Peer-originated scene traffic is the application's concern, not the
	// sync layer's.
	st.log.Debug("dropping peer actor update",
		log.Stringer("clientID", clientID),
	)
	return nil
}

func (st *syncStarter) HandleTrace(clientID ids.ID, msg *protocol.Trace) error {
	st.log.Info("client trace",
		log.Stringer("clientID", clientID),
		log.String("severity", msg.Severity),
		log.String("message", msg.Message),
	)
	return nil
}
