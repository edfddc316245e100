// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/worldsync/protocol"
	"github.com/luxfi/worldsync/transport"
)

func TestQueueFilterPreservesOrder(t *testing.T) {
	require := require.New(t)

	q := newMessageQueue()
	q.Push(&protocol.LoadAsset{URI: "a"}, nil)
	q.Push(&protocol.ActorUpdate{}, nil)
	q.Push(&protocol.LoadAsset{URI: "b"}, nil)
	q.Push(&protocol.ActorUpdate{}, nil)
	q.Push(&protocol.LoadAsset{URI: "c"}, nil)

	taken := q.Filter(func(msg protocol.Message) bool {
		return msg.Type() == protocol.TypeLoadAsset
	})

	require.Len(taken, 3)
	require.Equal("a", taken[0].msg.(*protocol.LoadAsset).URI)
	require.Equal("b", taken[1].msg.(*protocol.LoadAsset).URI)
	require.Equal("c", taken[2].msg.(*protocol.LoadAsset).URI)

	// The untaken entries stay queued, still in order.
	require.Equal(2, q.Len())
	rest := q.Filter(func(protocol.Message) bool { return true })
	require.Len(rest, 2)
	require.Equal(protocol.TypeActorUpdate, rest[0].msg.Type())
}

func TestQueueFilterNoMatch(t *testing.T) {
	require := require.New(t)

	q := newMessageQueue()
	q.Push(&protocol.ActorUpdate{}, nil)

	taken := q.Filter(func(protocol.Message) bool { return false })
	require.Empty(taken)
	require.Equal(1, q.Len())
}

func TestQueueRejectAll(t *testing.T) {
	require := require.New(t)

	errDisconnected := errors.New("peer disconnected")

	q := newMessageQueue()
	reply := transport.NewReply()
	q.Push(&protocol.CreateActor{}, reply)
	q.Push(&protocol.ActorUpdate{}, nil)

	q.RejectAll(errDisconnected)
	require.Zero(q.Len())

	_, err := reply.Await(context.Background())
	require.ErrorIs(err, errDisconnected)
}
