// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"sync"

	"github.com/luxfi/ids"

	"github.com/luxfi/worldsync/protocol"
)

// CachedActor is the read-side view of one remembered actor.
type CachedActor struct {
	ActorID              ids.ID
	ParentID             ids.ID
	Created              protocol.Message
	Behavior             string
	CreatedAnimations    []protocol.Message
	ActiveInterpolations []*protocol.InterpolateActor
}

type cachedActor struct {
	actorID              ids.ID
	parentID             ids.ID
	created              protocol.Message
	behavior             string
	createdAnimations    []protocol.Message
	activeInterpolations []*protocol.InterpolateActor
}

// Cache remembers the create/update traffic needed to bring a joining peer
// up to the session's current state. The application task appends; sync
// drivers read concurrently and observe a consistent prefix.
type Cache struct {
	mu           sync.RWMutex
	assets       []*protocol.LoadAsset
	assetUpdates []*protocol.AssetUpdate
	actors       map[ids.ID]*cachedActor
	actorOrder   []ids.ID
	roots        []ids.ID
	children     map[ids.ID][]ids.ID
}

func NewCache() *Cache {
	return &Cache{
		actors:   make(map[ids.ID]*cachedActor),
		children: make(map[ids.ID][]ids.ID),
	}
}

// Observe records an outbound application message if it is one of the kinds
// the cache remembers. Unrecognized payloads are ignored.
func (c *Cache) Observe(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.LoadAsset:
		c.RecordAsset(m)
	case *protocol.AssetUpdate:
		c.RecordAssetUpdate(m)
	case *protocol.CreateActor:
		c.RecordActor(m.ActorID, m.ParentID, m)
	case *protocol.CreateFromLibrary:
		c.RecordActor(m.ActorID, m.ParentID, m)
	case *protocol.SetBehavior:
		c.RecordBehavior(m.ActorID, m.BehaviorType)
	case *protocol.CreateAnimation:
		c.RecordAnimation(m.ActorID, m)
	case *protocol.InterpolateActor:
		c.RecordInterpolation(m.ActorID, m)
	}
}

func (c *Cache) RecordAsset(msg *protocol.LoadAsset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets = append(c.assets, msg)
}

func (c *Cache) RecordAssetUpdate(msg *protocol.AssetUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assetUpdates = append(c.assetUpdates, msg)
}

func (c *Cache) RecordActor(actorID, parentID ids.ID, created protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.actors[actorID]; ok {
		return
	}
	c.actors[actorID] = &cachedActor{
		actorID:  actorID,
		parentID: parentID,
		created:  created,
	}
	c.actorOrder = append(c.actorOrder, actorID)
	if parentID == ids.Empty {
		c.roots = append(c.roots, actorID)
	} else {
		c.children[parentID] = append(c.children[parentID], actorID)
	}
}

func (c *Cache) RecordBehavior(actorID ids.ID, behaviorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if actor, ok := c.actors[actorID]; ok {
		actor.behavior = behaviorType
	}
}

func (c *Cache) RecordAnimation(actorID ids.ID, created protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if actor, ok := c.actors[actorID]; ok {
		actor.createdAnimations = append(actor.createdAnimations, created)
	}
}

func (c *Cache) RecordInterpolation(actorID ids.ID, msg *protocol.InterpolateActor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if actor, ok := c.actors[actorID]; ok {
		actor.activeInterpolations = append(actor.activeInterpolations, msg)
	}
}

// Assets returns the cached load-asset messages in record order.
func (c *Cache) Assets() []*protocol.LoadAsset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*protocol.LoadAsset, len(c.assets))
	copy(out, c.assets)
	return out
}

// AssetUpdates returns the cached asset patches in record order.
func (c *Cache) AssetUpdates() []*protocol.AssetUpdate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*protocol.AssetUpdate, len(c.assetUpdates))
	copy(out, c.assetUpdates)
	return out
}

// Actors returns every cached actor in record order.
func (c *Cache) Actors() []CachedActor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]CachedActor, 0, len(c.actorOrder))
	for _, actorID := range c.actorOrder {
		out = append(out, c.actors[actorID].view())
	}
	return out
}

// RootActors returns the cached actors with no parent, in record order.
func (c *Cache) RootActors() []CachedActor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]CachedActor, 0, len(c.roots))
	for _, actorID := range c.roots {
		out = append(out, c.actors[actorID].view())
	}
	return out
}

// ChildrenOf returns the cached children of an actor, in record order.
func (c *Cache) ChildrenOf(actorID ids.ID) []CachedActor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	childIDs := c.children[actorID]
	out := make([]CachedActor, 0, len(childIDs))
	for _, childID := range childIDs {
		out = append(out, c.actors[childID].view())
	}
	return out
}

// view copies the actor into its immutable read-side shape. Callers hold
// c.mu for reading.
func (a *cachedActor) view() CachedActor {
	animations := make([]protocol.Message, len(a.createdAnimations))
	copy(animations, a.createdAnimations)
	interpolations := make([]*protocol.InterpolateActor, len(a.activeInterpolations))
	copy(interpolations, a.activeInterpolations)
	return CachedActor{
		ActorID:              a.actorID,
		ParentID:             a.parentID,
		Created:              a.created,
		Behavior:             a.behavior,
		CreatedAnimations:    animations,
		ActiveInterpolations: interpolations,
	}
}
