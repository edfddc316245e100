// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/worldsync/protocol"
	"github.com/luxfi/worldsync/session"
	"github.com/luxfi/worldsync/transport"
)

// testEnv wires one session with an app-facing pipe and one joined client.
type testEnv struct {
	sess    *session.Session
	appConn *transport.Pipe
	conn    *transport.Pipe
	client  *session.Client
	proto   *Protocol
}

func newTestEnv(t *testing.T, peerAuthoritative bool) *testEnv {
	require := require.New(t)

	logger := log.NewNoOpLogger()
	appConn := transport.NewPipe()
	sess := session.New(logger, ids.GenerateTestID(), appConn, peerAuthoritative)

	conn := transport.NewPipe()
	client := sess.Join(ids.GenerateTestID(), conn)

	proto, err := New(logger, sess, client, metric.NewRegistry())
	require.NoError(err)

	return &testEnv{
		sess:    sess,
		appConn: appConn,
		conn:    conn,
		client:  client,
		proto:   proto,
	}
}

// joinPeer admits another peer over its own pipe; a driver is created so
// the new peer has a router, but it is not run.
func (env *testEnv) joinPeer(t *testing.T) (*session.Client, *transport.Pipe, *Protocol) {
	require := require.New(t)

	conn := transport.NewPipe()
	client := env.sess.Join(ids.GenerateTestID(), conn)
	proto, err := New(log.NewNoOpLogger(), env.sess, client, metric.NewRegistry())
	require.NoError(err)
	return client, conn, proto
}

// unknownMessage is a discriminant absent from the rule table.
type unknownMessage struct{}

func (*unknownMessage) Type() string { return "mystery-payload" }

// typesAfterCalibration strips the calibration heartbeats off a trace.
func typesAfterCalibration(t *testing.T, conn *transport.Pipe) []string {
	require := require.New(t)

	types := conn.TraceTypes()
	require.GreaterOrEqual(len(types), calibrationHeartbeats)
	for i := 0; i < calibrationHeartbeats; i++ {
		require.Equal(protocol.TypeHeartbeat, types[i])
	}
	return types[calibrationHeartbeats:]
}
