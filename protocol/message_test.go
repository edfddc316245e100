// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func allMessages() []Message {
	return []Message{
		&Heartbeat{},
		&HeartbeatReply{},
		&SyncRequest{},
		&SyncComplete{},
		&SyncAnimations{},
		&Trace{},
		&LoadAsset{},
		&AssetUpdate{},
		&AssetsLoaded{},
		&CreateActor{},
		&CreateFromLibrary{},
		&ObjectSpawned{},
		&OperationResult{},
		&ActorUpdate{},
		&ActorCorrection{},
		&DestroyActors{},
		&SetBehavior{},
		&CreateAnimation{},
		&AnimationUpdate{},
		&DestroyAnimations{},
		&InterpolateActor{},
		&SetAnimationState{},
		&RigidBodyCommand{},
		&SetMediaState{},
	}
}

func TestDiscriminantsAreUnique(t *testing.T) {
	require := require.New(t)

	seen := make(map[string]bool)
	for _, msg := range allMessages() {
		discriminant := msg.Type()
		require.NotEmpty(discriminant)
		require.False(seen[discriminant], "duplicate discriminant %q", discriminant)
		seen[discriminant] = true
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	require := require.New(t)

	actorID := ids.GenerateTestID()
	built := &Envelope{
		RequestID: 7,
		Payload: &CreateActor{
			ActorID: actorID,
			Name:    "lamp",
			Transform: Transform{
				Position: [3]float64{1, 2, 3},
				Rotation: [4]float64{0, 0, 0, 1},
				Scale:    [3]float64{1, 1, 1},
			},
		},
	}

	data, err := Build(built)
	require.NoError(err)

	parsed, err := Parse(data)
	require.NoError(err)
	require.Equal(uint32(7), parsed.RequestID)
	require.Zero(parsed.ReplyTo)

	payload, ok := parsed.Payload.(*CreateActor)
	require.True(ok)
	require.Equal(actorID, payload.ActorID)
	require.Equal("lamp", payload.Name)
	require.Equal(built.Payload, payload)
}

func TestEnvelopeReplyRoundTrip(t *testing.T) {
	require := require.New(t)

	built := &Envelope{
		ReplyTo: 3,
		Payload: &SyncAnimations{
			AnimationStates: []AnimationState{
				{AnimationID: ids.GenerateTestID(), Time: 10.5, Speed: 1, Enabled: true},
			},
		},
	}

	data, err := Build(built)
	require.NoError(err)

	parsed, err := Parse(data)
	require.NoError(err)
	require.Equal(built.Payload, parsed.Payload)
}

func TestParseGarbageFails(t *testing.T) {
	require := require.New(t)

	_, err := Parse([]byte("not an envelope"))
	require.Error(err)
}
