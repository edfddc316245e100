// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"github.com/luxfi/ids"
)

// Message is implemented by every wire payload. Type returns the payload
// discriminant used by the sync router; everything else is opaque to it.
type Message interface {
	Type() string
}

// Payload discriminants. The set is closed; the router's rule table covers
// every entry.
const (
	TypeHeartbeat         = "heartbeat"
	TypeHeartbeatReply    = "heartbeat-reply"
	TypeSyncRequest       = "sync-request"
	TypeSyncComplete      = "sync-complete"
	TypeSyncAnimations    = "sync-animations"
	TypeTrace             = "trace"
	TypeLoadAsset         = "load-asset"
	TypeAssetUpdate       = "asset-update"
	TypeAssetsLoaded      = "assets-loaded"
	TypeCreateActor       = "create-actor"
	TypeCreateFromLibrary = "create-from-library"
	TypeObjectSpawned     = "object-spawned"
	TypeOperationResult   = "operation-result"
	TypeActorUpdate       = "actor-update"
	TypeActorCorrection   = "actor-correction"
	TypeDestroyActors     = "destroy-actors"
	TypeSetBehavior       = "set-behavior"
	TypeCreateAnimation   = "create-animation"
	TypeAnimationUpdate   = "animation-update"
	TypeDestroyAnimations = "destroy-animations"
	TypeInterpolateActor  = "interpolate-actor"
	TypeSetAnimationState = "set-animation-state"
	TypeRigidBodyCommand  = "rigid-body-command"
	TypeSetMediaState     = "set-media-state"
)

// Transform is the spatial component carried by actor payloads.
type Transform struct {
	Position [3]float64 `serialize:"true" json:"position"`
	Rotation [4]float64 `serialize:"true" json:"rotation"`
	Scale    [3]float64 `serialize:"true" json:"scale"`
}

// AnimationState is one animation's playback sample. Time is in seconds and
// is rewritten by the latency reconciler before delivery to a joining peer.
type AnimationState struct {
	AnimationID ids.ID  `serialize:"true" json:"animationId"`
	Time        float64 `serialize:"true" json:"time"`
	Speed       float64 `serialize:"true" json:"speed"`
	Enabled     bool    `serialize:"true" json:"enabled"`
}

// Heartbeat is sent by the server to measure round-trip time.
type Heartbeat struct {
	ServerTime int64 `serialize:"true" json:"serverTime"`
}

// HeartbeatReply echoes a Heartbeat back to the server.
type HeartbeatReply struct {
	ServerTime int64 `serialize:"true" json:"serverTime"`
}

// SyncRequest is the first payload a joining peer sends; it hands the
// connection over to the sync protocol.
type SyncRequest struct {
	UserID ids.ID `serialize:"true" json:"userId"`
}

// SyncComplete notifies a peer that it is caught up with the session.
type SyncComplete struct{}

// SyncAnimations doubles as the request for canonical animation state (empty
// AnimationStates) and the reply carrying it.
type SyncAnimations struct {
	AnimationStates []AnimationState `serialize:"true" json:"animationStates"`
}

// Trace is a diagnostic log line forwarded between peers and the host app.
type Trace struct {
	Severity string `serialize:"true" json:"severity"`
	Message  string `serialize:"true" json:"message"`
}

// LoadAsset asks a peer to fetch an asset container.
type LoadAsset struct {
	ContainerID  ids.ID `serialize:"true" json:"containerId"`
	URI          string `serialize:"true" json:"uri"`
	ColliderType string `serialize:"true" json:"colliderType"`
}

// AssetUpdate patches a previously loaded asset.
type AssetUpdate struct {
	AssetID ids.ID `serialize:"true" json:"assetId"`
	Patch   []byte `serialize:"true" json:"patch"`
}

// AssetsLoaded is the peer's reply to LoadAsset.
type AssetsLoaded struct {
	ContainerID    ids.ID   `serialize:"true" json:"containerId"`
	AssetIDs       []ids.ID `serialize:"true" json:"assetIds"`
	FailureMessage string   `serialize:"true" json:"failureMessage"`
}

// CreateActor instantiates an actor. ParentID is ids.Empty for root actors;
// children must not be created before the parent's reply is observed.
type CreateActor struct {
	ActorID   ids.ID    `serialize:"true" json:"actorId"`
	ParentID  ids.ID    `serialize:"true" json:"parentId"`
	Name      string    `serialize:"true" json:"name"`
	Transform Transform `serialize:"true" json:"transform"`
}

// CreateFromLibrary instantiates an actor from a host-provided library
// resource instead of an empty node.
type CreateFromLibrary struct {
	ActorID    ids.ID `serialize:"true" json:"actorId"`
	ParentID   ids.ID `serialize:"true" json:"parentId"`
	ResourceID string `serialize:"true" json:"resourceId"`
}

// ObjectSpawned is the peer's reply to the create-actor family.
type ObjectSpawned struct {
	ActorIDs []ids.ID `serialize:"true" json:"actorIds"`
	Result   string   `serialize:"true" json:"result"`
}

// OperationResult is the generic reply for operations without a richer one.
type OperationResult struct {
	ResultCode string `serialize:"true" json:"resultCode"`
	Message    string `serialize:"true" json:"message"`
}

// ActorUpdate is a user-generated patch to a live actor.
type ActorUpdate struct {
	ActorID   ids.ID    `serialize:"true" json:"actorId"`
	Transform Transform `serialize:"true" json:"transform"`
}

// ActorCorrection is an authoritative override of an actor's transform.
type ActorCorrection struct {
	ActorID   ids.ID    `serialize:"true" json:"actorId"`
	Transform Transform `serialize:"true" json:"transform"`
}

// DestroyActors removes actors and their descendants.
type DestroyActors struct {
	ActorIDs []ids.ID `serialize:"true" json:"actorIds"`
}

// SetBehavior attaches an interaction behavior to an actor.
type SetBehavior struct {
	ActorID      ids.ID `serialize:"true" json:"actorId"`
	BehaviorType string `serialize:"true" json:"behaviorType"`
}

// CreateAnimation declares a keyframed animation on an actor.
type CreateAnimation struct {
	AnimationID ids.ID  `serialize:"true" json:"animationId"`
	ActorID     ids.ID  `serialize:"true" json:"actorId"`
	Name        string  `serialize:"true" json:"name"`
	Duration    float64 `serialize:"true" json:"duration"`
	WrapMode    string  `serialize:"true" json:"wrapMode"`
}

// AnimationUpdate is a user-generated patch to a live animation.
type AnimationUpdate struct {
	AnimationID ids.ID         `serialize:"true" json:"animationId"`
	State       AnimationState `serialize:"true" json:"state"`
}

// DestroyAnimations removes animations.
type DestroyAnimations struct {
	AnimationIDs []ids.ID `serialize:"true" json:"animationIds"`
}

// InterpolateActor eases an actor toward a target transform. Enabled is
// forced to false during replay; playback resumes in the following stage.
type InterpolateActor struct {
	ActorID     ids.ID     `serialize:"true" json:"actorId"`
	AnimationID ids.ID     `serialize:"true" json:"animationId"`
	Value       Transform  `serialize:"true" json:"value"`
	Curve       [4]float64 `serialize:"true" json:"curve"`
	Duration    float64    `serialize:"true" json:"duration"`
	Enabled     bool       `serialize:"true" json:"enabled"`
}

// SetAnimationState seeks, pauses, or resumes an animation.
type SetAnimationState struct {
	AnimationID ids.ID         `serialize:"true" json:"animationId"`
	State       AnimationState `serialize:"true" json:"state"`
}

// RigidBodyCommand applies a physics command to an actor's rigid body.
type RigidBodyCommand struct {
	ActorID ids.ID     `serialize:"true" json:"actorId"`
	Command string     `serialize:"true" json:"command"`
	Force   [3]float64 `serialize:"true" json:"force"`
}

// SetMediaState starts, pauses, or seeks media playback on an actor.
type SetMediaState struct {
	ActorID      ids.ID  `serialize:"true" json:"actorId"`
	MediaAssetID ids.ID  `serialize:"true" json:"mediaAssetId"`
	Command      string  `serialize:"true" json:"command"`
	Time         float64 `serialize:"true" json:"time"`
}

func (*Heartbeat) Type() string         { return TypeHeartbeat }
func (*HeartbeatReply) Type() string    { return TypeHeartbeatReply }
func (*SyncRequest) Type() string       { return TypeSyncRequest }
func (*SyncComplete) Type() string      { return TypeSyncComplete }
func (*SyncAnimations) Type() string    { return TypeSyncAnimations }
func (*Trace) Type() string             { return TypeTrace }
func (*LoadAsset) Type() string         { return TypeLoadAsset }
func (*AssetUpdate) Type() string       { return TypeAssetUpdate }
func (*AssetsLoaded) Type() string      { return TypeAssetsLoaded }
func (*CreateActor) Type() string       { return TypeCreateActor }
func (*CreateFromLibrary) Type() string { return TypeCreateFromLibrary }
func (*ObjectSpawned) Type() string     { return TypeObjectSpawned }
func (*OperationResult) Type() string   { return TypeOperationResult }
func (*ActorUpdate) Type() string       { return TypeActorUpdate }
func (*ActorCorrection) Type() string   { return TypeActorCorrection }
func (*DestroyActors) Type() string     { return TypeDestroyActors }
func (*SetBehavior) Type() string       { return TypeSetBehavior }
func (*CreateAnimation) Type() string   { return TypeCreateAnimation }
func (*AnimationUpdate) Type() string   { return TypeAnimationUpdate }
func (*DestroyAnimations) Type() string { return TypeDestroyAnimations }
func (*InterpolateActor) Type() string  { return TypeInterpolateActor }
func (*SetAnimationState) Type() string { return TypeSetAnimationState }
func (*RigidBodyCommand) Type() string  { return TypeRigidBodyCommand }
func (*SetMediaState) Type() string     { return TypeSetMediaState }
