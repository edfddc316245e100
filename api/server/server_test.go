// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/worldsync/protocol"
	"github.com/luxfi/worldsync/session"
)

func newTestServer(t *testing.T) (*session.Manager, net.Addr) {
	require := require.New(t)

	logger := log.NewNoOpLogger()
	sessions := session.NewManager(logger, true)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)

	srv, err := New(logger, listener, sessions, metric.NewRegistry(), nil, Config{
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: 5 * time.Second,
	})
	require.NoError(err)

	go func() {
		_ = srv.Dispatch()
	}()
	t.Cleanup(func() {
		require.NoError(srv.Shutdown())
	})
	return sessions, listener.Addr()
}

func TestServerHealth(t *testing.T) {
	require := require.New(t)

	sessions, addr := newTestServer(t)
	sessions.GetOrCreate(ids.GenerateTestID())

	resp, err := http.Get(fmt.Sprintf("http://%s/ext/health", addr))
	require.NoError(err)
	defer func() {
		require.NoError(resp.Body.Close())
	}()
	require.Equal(http.StatusOK, resp.StatusCode)

	reply := healthReply{}
	require.NoError(json.NewDecoder(resp.Body).Decode(&reply))
	require.True(reply.Healthy)
	require.Len(reply.Sessions, 1)
}

func TestServerJoinRejectsBadIDs(t *testing.T) {
	require := require.New(t)

	_, addr := newTestServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/ext/join/not-an-id", addr))
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusBadRequest, resp.StatusCode)
}

// A peer joining an empty session over websocket observes the calibration
// burst and sync-complete.
func TestServerJoinAndSync(t *testing.T) {
	require := require.New(t)

	sessions, addr := newTestServer(t)
	sessionID := ids.GenerateTestID()
	clientID := ids.GenerateTestID()

	url := fmt.Sprintf("ws://%s/ext/join/%s?client=%s", addr, sessionID, clientID)
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(err)
	if resp != nil {
		require.NoError(resp.Body.Close())
	}
	defer func() {
		_ = ws.Close()
	}()

	data, err := protocol.Build(&protocol.Envelope{Payload: &protocol.SyncRequest{UserID: clientID}})
	require.NoError(err)
	require.NoError(ws.WriteMessage(websocket.BinaryMessage, data))

	heartbeats := 0
	for {
		require.NoError(ws.SetReadDeadline(time.Now().Add(10 * time.Second)))
		_, data, err := ws.ReadMessage()
		require.NoError(err)
		env, err := protocol.Parse(data)
		require.NoError(err)

		switch env.Payload.(type) {
		case *protocol.Heartbeat:
			heartbeats++
			out, err := protocol.Build(&protocol.Envelope{
				ReplyTo: env.RequestID,
				Payload: &protocol.HeartbeatReply{},
			})
			require.NoError(err)
			require.NoError(ws.WriteMessage(websocket.BinaryMessage, out))

		case *protocol.SyncComplete:
			require.Equal(10, heartbeats)

			sess, ok := sessions.Get(sessionID)
			require.True(ok)
			require.Len(sess.Clients(), 1)
			require.Equal(clientID, sess.Clients()[0].ID())
			return

		default:
			t.Fatalf("unexpected payload %q", env.Payload.Type())
		}
	}
}
