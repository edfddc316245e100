// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStageTrackerTransitions(t *testing.T) {
	require := require.New(t)

	tracker := newStageTracker()
	require.False(tracker.InProgress(StageLoadAssets))
	require.False(tracker.Completed(StageLoadAssets))

	tracker.Begin(StageLoadAssets)
	require.True(tracker.InProgress(StageLoadAssets))
	require.False(tracker.Completed(StageLoadAssets))

	tracker.Complete(StageLoadAssets)
	require.False(tracker.InProgress(StageLoadAssets))
	require.True(tracker.Completed(StageLoadAssets))
}

func TestStageTrackerCompleteIsMonotone(t *testing.T) {
	require := require.New(t)

	tracker := newStageTracker()
	tracker.Begin(StageCreateActors)
	tracker.Complete(StageCreateActors)

	// A completed stage is never reopened.
	tracker.Begin(StageCreateActors)
	require.False(tracker.InProgress(StageCreateActors))
	require.True(tracker.Completed(StageCreateActors))
}

func TestStageTrackerSetsAreDisjoint(t *testing.T) {
	require := require.New(t)

	tracker := newStageTracker()
	for _, stage := range Sequence {
		tracker.Begin(stage)
		require.True(tracker.InProgress(stage))
		require.False(tracker.Completed(stage))

		tracker.Complete(stage)
		require.False(tracker.InProgress(stage))
		require.True(tracker.Completed(stage))
	}

	inProgress, complete := tracker.snapshot()
	require.Empty(inProgress)
	require.Len(complete, len(Sequence))
}
