// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/worldsync/protocol"
)

// dialWebsocket spins up a server-side WebsocketConn and returns it along
// with the raw peer end of the link.
func dialWebsocket(t *testing.T) (*WebsocketConn, *websocket.Conn) {
	require := require.New(t)

	upgrader := websocket.Upgrader{}
	connCh := make(chan *WebsocketConn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewWebsocket(log.NewNoOpLogger(), ids.GenerateTestID(), ws)
		conn.Start()
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(err)
	if resp != nil {
		_ = resp.Body.Close()
	}

	conn := <-connCh
	t.Cleanup(func() {
		_ = conn.Close(nil)
		_ = peer.Close()
		conn.AwaitClosed()
	})
	return conn, peer
}

func TestWebsocketRequestReply(t *testing.T) {
	require := require.New(t)

	conn, peer := dialWebsocket(t)

	// The peer answers every request it sees.
	go func() {
		for {
			_, data, err := peer.ReadMessage()
			if err != nil {
				return
			}
			env, err := protocol.Parse(data)
			if err != nil || env.RequestID == 0 {
				continue
			}
			out, err := protocol.Build(&protocol.Envelope{
				ReplyTo: env.RequestID,
				Payload: &protocol.HeartbeatReply{},
			})
			if err != nil {
				return
			}
			if err := peer.WriteMessage(websocket.BinaryMessage, out); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := conn.Request(&protocol.Heartbeat{ServerTime: 1}).Await(ctx)
	require.NoError(err)
	require.IsType(&protocol.HeartbeatReply{}, msg)

	// The heartbeat round trip fed the latency estimate.
	require.Positive(conn.Latency())
}

func TestWebsocketSendPreservesOrder(t *testing.T) {
	require := require.New(t)

	conn, peer := dialWebsocket(t)

	require.NoError(conn.Send(&protocol.Trace{Message: "one"}))
	require.NoError(conn.Send(&protocol.Trace{Message: "two"}))

	for _, want := range []string{"one", "two"} {
		require.NoError(peer.SetReadDeadline(time.Now().Add(5 * time.Second)))
		_, data, err := peer.ReadMessage()
		require.NoError(err)
		env, err := protocol.Parse(data)
		require.NoError(err)
		require.Equal(want, env.Payload.(*protocol.Trace).Message)
	}
}

func TestWebsocketCloseRejectsPending(t *testing.T) {
	require := require.New(t)

	conn, _ := dialWebsocket(t)

	reply := conn.Request(&protocol.Heartbeat{})
	require.NoError(conn.Close(nil))

	_, err := reply.Await(context.Background())
	require.ErrorIs(err, ErrClosed)
}
