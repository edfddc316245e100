// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/worldsync/protocol"
)

func TestPipeRecordsTraceInOrder(t *testing.T) {
	require := require.New(t)

	pipe := NewPipe()
	require.NoError(pipe.Send(&protocol.Trace{Message: "one"}))
	require.NoError(pipe.Send(&protocol.SyncComplete{}))
	pipe.Request(&protocol.Heartbeat{})

	require.Equal([]string{
		protocol.TypeTrace,
		protocol.TypeSyncComplete,
		protocol.TypeHeartbeat,
	}, pipe.TraceTypes())
}

func TestPipeDefaultResponder(t *testing.T) {
	require := require.New(t)

	pipe := NewPipe()

	msg, err := pipe.Request(&protocol.LoadAsset{}).Await(context.Background())
	require.NoError(err)
	require.IsType(&protocol.AssetsLoaded{}, msg)

	msg, err = pipe.Request(&protocol.CreateActor{}).Await(context.Background())
	require.NoError(err)
	require.IsType(&protocol.ObjectSpawned{}, msg)
}

func TestPipeResponderError(t *testing.T) {
	require := require.New(t)

	errNo := errors.New("no")
	pipe := NewPipe()
	pipe.SetResponder(func(protocol.Message) (protocol.Message, error) {
		return nil, errNo
	})

	_, err := pipe.Request(&protocol.Heartbeat{}).Await(context.Background())
	require.ErrorIs(err, errNo)
}

func TestPipeClose(t *testing.T) {
	require := require.New(t)

	pipe := NewPipe()
	require.NoError(pipe.Close(nil))

	require.ErrorIs(pipe.Send(&protocol.SyncComplete{}), ErrClosed)

	_, err := pipe.Request(&protocol.Heartbeat{}).Await(context.Background())
	require.ErrorIs(err, ErrClosed)
	require.Empty(pipe.Trace())
}

func TestPipeLatency(t *testing.T) {
	require := require.New(t)

	pipe := NewPipe()
	require.Zero(pipe.Latency())

	pipe.SetLatency(100 * time.Millisecond)
	require.Equal(100*time.Millisecond, pipe.Latency())
}
