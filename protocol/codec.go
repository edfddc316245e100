// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/constants"

	"github.com/luxfi/worldsync/utils"
)

const (
	codecVersion   = 0
	maxMessageSize = 256 * constants.KiB
)

// Codec does serialization and deserialization
var c codec.Manager

func init() {
	c = codec.NewManager(maxMessageSize)
	lc := linearcodec.NewDefault()

	err := utils.Err(
		lc.RegisterType(&Heartbeat{}),
		lc.RegisterType(&HeartbeatReply{}),
		lc.RegisterType(&SyncRequest{}),
		lc.RegisterType(&SyncComplete{}),
		lc.RegisterType(&SyncAnimations{}),
		lc.RegisterType(&Trace{}),
		lc.RegisterType(&LoadAsset{}),
		lc.RegisterType(&AssetUpdate{}),
		lc.RegisterType(&AssetsLoaded{}),
		lc.RegisterType(&CreateActor{}),
		lc.RegisterType(&CreateFromLibrary{}),
		lc.RegisterType(&ObjectSpawned{}),
		lc.RegisterType(&OperationResult{}),
		lc.RegisterType(&ActorUpdate{}),
		lc.RegisterType(&ActorCorrection{}),
		lc.RegisterType(&DestroyActors{}),
		lc.RegisterType(&SetBehavior{}),
		lc.RegisterType(&CreateAnimation{}),
		lc.RegisterType(&AnimationUpdate{}),
		lc.RegisterType(&DestroyAnimations{}),
		lc.RegisterType(&InterpolateActor{}),
		lc.RegisterType(&SetAnimationState{}),
		lc.RegisterType(&RigidBodyCommand{}),
		lc.RegisterType(&SetMediaState{}),
		c.RegisterCodec(codecVersion, lc),
	)
	if err != nil {
		panic(err)
	}
}

// Envelope frames a payload on the wire. RequestID is nonzero when the
// sender expects a reply; ReplyTo is nonzero when the payload answers an
// earlier request.
type Envelope struct {
	RequestID uint32  `serialize:"true" json:"requestId"`
	ReplyTo   uint32  `serialize:"true" json:"replyTo"`
	Payload   Message `serialize:"true" json:"payload"`
}

// Build serializes an envelope for the wire.
func Build(env *Envelope) ([]byte, error) {
	return c.Marshal(codecVersion, env)
}

// Parse deserializes an envelope from the wire.
func Parse(bytes []byte) (*Envelope, error) {
	env := &Envelope{}
	if _, err := c.Unmarshal(bytes, env); err != nil {
		return nil, err
	}
	return env, nil
}
