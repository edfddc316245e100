// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"github.com/luxfi/worldsync/protocol"
)

// Handling is the router's verdict for one outbound message.
type Handling uint8

const (
	// Allow forwards the message to the transport immediately.
	Allow Handling = iota
	// Queue defers the message until its stage completes.
	Queue
	// Ignore drops the message; any pending reply is resolved empty.
	Ignore
	// Error marks a message that should be impossible in the current
	// phase. It is logged and dropped, never sent.
	Error
)

func (h Handling) String() string {
	switch h {
	case Allow:
		return "allow"
	case Queue:
		return "queue"
	case Ignore:
		return "ignore"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Rule decides how one payload discriminant is handled before its stage
// starts, while it is in progress, and after it completes.
type Rule struct {
	Stage  Stage
	Before Handling
	During Handling
	After  Handling
}

// DefaultRule governs discriminants absent from the table: defer until the
// whole sync completes, then release.
var DefaultRule = Rule{
	Stage:  StageNever,
	Before: Queue,
	During: Queue,
	After:  Allow,
}

// rules is the canonical source of truth for message classification. The
// router performs no other classification. Every discriminant the
// application can emit has an entry; anything else falls back to
// DefaultRule.
var rules = map[string]Rule{
	// Control traffic flows at any time.
	protocol.TypeHeartbeat:       {Stage: StageAlways, Before: Allow, During: Allow, After: Allow},
	protocol.TypeHeartbeatReply:  {Stage: StageAlways, Before: Allow, During: Allow, After: Allow},
	protocol.TypeSyncComplete:    {Stage: StageAlways, Before: Allow, During: Allow, After: Allow},
	protocol.TypeTrace:           {Stage: StageAlways, Before: Allow, During: Allow, After: Allow},
	protocol.TypeOperationResult: {Stage: StageAlways, Before: Allow, During: Allow, After: Allow},
	protocol.TypeObjectSpawned:   {Stage: StageAlways, Before: Allow, During: Allow, After: Allow},
	protocol.TypeAssetsLoaded:    {Stage: StageAlways, Before: Allow, During: Allow, After: Allow},

	// sync-request is inbound-only; emitting one is a protocol violation.
	protocol.TypeSyncRequest: {Stage: StageAlways, Before: Error, During: Error, After: Error},

	// Asset traffic replays during load-assets.
	protocol.TypeLoadAsset:   {Stage: StageLoadAssets, Before: Queue, During: Allow, After: Allow},
	protocol.TypeAssetUpdate: {Stage: StageLoadAssets, Before: Queue, During: Allow, After: Allow},

	// Actor creation replays during create-actors.
	protocol.TypeCreateActor:       {Stage: StageCreateActors, Before: Queue, During: Allow, After: Allow},
	protocol.TypeCreateFromLibrary: {Stage: StageCreateActors, Before: Queue, During: Allow, After: Allow},

	protocol.TypeSetBehavior: {Stage: StageSetBehaviors, Before: Queue, During: Allow, After: Allow},

	protocol.TypeCreateAnimation:  {Stage: StageCreateAnimations, Before: Queue, During: Allow, After: Allow},
	protocol.TypeInterpolateActor: {Stage: StageCreateAnimations, Before: Queue, During: Allow, After: Allow},

	// The reconciler's reply is meaningless before its stage runs.
	protocol.TypeSyncAnimations: {Stage: StageSyncAnimations, Before: Ignore, During: Allow, After: Allow},

	// User-generated traffic targets in-flight objects; it waits for the
	// whole sync.
	protocol.TypeActorUpdate:       {Stage: StageNever, Before: Queue, During: Queue, After: Allow},
	protocol.TypeActorCorrection:   {Stage: StageNever, Before: Queue, During: Queue, After: Allow},
	protocol.TypeAnimationUpdate:   {Stage: StageNever, Before: Queue, During: Queue, After: Allow},
	protocol.TypeSetAnimationState: {Stage: StageNever, Before: Queue, During: Queue, After: Allow},
	protocol.TypeDestroyActors:     {Stage: StageNever, Before: Queue, During: Queue, After: Allow},
	protocol.TypeDestroyAnimations: {Stage: StageNever, Before: Queue, During: Queue, After: Allow},
	protocol.TypeRigidBodyCommand:  {Stage: StageNever, Before: Queue, During: Queue, After: Allow},
	protocol.TypeSetMediaState:     {Stage: StageNever, Before: Queue, During: Queue, After: Allow},
}

// RuleFor returns the rule for a discriminant and whether it was present in
// the table.
func RuleFor(discriminant string) (Rule, bool) {
	rule, ok := rules[discriminant]
	if !ok {
		return DefaultRule, false
	}
	return rule, true
}
