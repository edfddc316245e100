// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package peersync drives a freshly joined peer to a state observationally
// identical to the peers already in the session, while routing the
// application's live traffic around the replay.
package peersync

import (
	"sync"

	"github.com/luxfi/math/set"
)

// Stage is a labelled phase of catching up a joining peer.
type Stage string

const (
	// StageAlways brackets the whole sync.
	StageAlways Stage = "always"

	StageLoadAssets       Stage = "load-assets"
	StageCreateActors     Stage = "create-actors"
	StageSetBehaviors     Stage = "set-behaviors"
	StageCreateAnimations Stage = "create-animations"
	StageSyncAnimations   Stage = "sync-animations"

	// StageNever marks rules whose stage does not complete during sync;
	// such messages are routed purely by their before/after handling.
	StageNever Stage = "never"
)

// Sequence is the fixed order in which the sync driver traverses stages.
var Sequence = []Stage{
	StageLoadAssets,
	StageCreateActors,
	StageSetBehaviors,
	StageCreateAnimations,
	StageSyncAnimations,
}

// stageTracker records which stages are in progress or complete for one
// peer. Stages only ever move absent -> in progress -> complete.
type stageTracker struct {
	lock       sync.RWMutex
	inProgress set.Set[Stage]
	complete   set.Set[Stage]
}

func newStageTracker() *stageTracker {
	return &stageTracker{
		inProgress: make(set.Set[Stage]),
		complete:   make(set.Set[Stage]),
	}
}

// Begin marks a stage in progress. Completed stages are never reopened.
func (t *stageTracker) Begin(stage Stage) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.complete.Contains(stage) {
		return
	}
	t.inProgress.Add(stage)
}

// Complete moves a stage from in progress to complete.
func (t *stageTracker) Complete(stage Stage) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.inProgress.Remove(stage)
	t.complete.Add(stage)
}

func (t *stageTracker) InProgress(stage Stage) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.inProgress.Contains(stage)
}

func (t *stageTracker) Completed(stage Stage) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.complete.Contains(stage)
}

// snapshot returns both sets for error context.
func (t *stageTracker) snapshot() ([]Stage, []Stage) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.inProgress.List(), t.complete.List()
}
