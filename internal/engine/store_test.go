package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/api"
)

func TestStoreMergeStatePopulatesMirror(t *testing.T) {
	s := NewStore()
	require.False(t, s.Snapshot().Ready)

	require.True(t, s.MergeState(testState(), nil))

	snap := s.Snapshot()
	require.True(t, snap.Ready)
	assert.Equal(t, 200.0, snap.Player.OilBalance)
	assert.Len(t, snap.Machines, 3)
	require.NotNil(t, snap.Config)
	assert.Equal(t, 1.5, snap.Config.UpgradeCostMultiplier)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Dana", snap.Profile.Name)
	assert.False(t, snap.LastSync.IsZero())
	assert.Nil(t, snap.LastError)
	assert.Zero(t, snap.ConsecutiveFailures)
}

func TestStoreMergeStateGuardDiscards(t *testing.T) {
	s := NewStore()

	merged := s.MergeState(testState(), func() bool { return false })

	require.False(t, merged)
	assert.False(t, s.Snapshot().Ready)
}

func TestStoreMergeStateKeepsPriorConfigAndProfile(t *testing.T) {
	s := NewStore()
	require.True(t, s.MergeState(testState(), nil))

	next := testState()
	next.Config = nil
	next.Profile = nil
	next.PlayerState.OilBalance = 75
	require.True(t, s.MergeState(next, nil))

	snap := s.Snapshot()
	require.NotNil(t, snap.Config)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, 75.0, snap.Player.OilBalance)
}

func TestStoreSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	require.True(t, s.MergeState(testState(), nil))

	snap := s.Snapshot()
	snap.Machines[0].FuelLevel = 999
	snap.Player.Minerals["iron"] = 999
	snap.Config.MachineTypes["drill"] = api.MachineType{}

	fresh := s.Snapshot()
	assert.Equal(t, 10.0, fresh.Machines[0].FuelLevel)
	assert.Equal(t, 120.0, fresh.Player.Minerals["iron"])
	assert.Equal(t, 100.0, fresh.Config.MachineTypes["drill"].BaseCost)
}

func TestStoreMergeActionResultLeavesAbsentFieldsAlone(t *testing.T) {
	s := NewStore()
	require.True(t, s.MergeState(testState(), nil))

	// Player-only update: machines keep their current values.
	s.MergeActionResult(&api.ActionResult{PlayerState: &api.PlayerState{OilBalance: 42}})
	snap := s.Snapshot()
	assert.Equal(t, 42.0, snap.Player.OilBalance)
	assert.Len(t, snap.Machines, 3)

	// Machines-only update: player keeps the previous answer.
	s.MergeActionResult(&api.ActionResult{Machines: []api.Machine{{ID: "m9", Type: "drill", Level: 1}}})
	snap = s.Snapshot()
	assert.Equal(t, 42.0, snap.Player.OilBalance)
	require.Len(t, snap.Machines, 1)
	assert.Equal(t, "m9", snap.Machines[0].ID)
}

func TestStoreMergeActionResultClearsFailureStreak(t *testing.T) {
	s := NewStore()
	require.True(t, s.MergeState(testState(), nil))
	s.RecordSyncFailure(errors.New("boom"))

	s.MergeActionResult(&api.ActionResult{PlayerState: &api.PlayerState{}})

	snap := s.Snapshot()
	assert.Nil(t, snap.LastError)
	assert.Zero(t, snap.ConsecutiveFailures)
}

func TestStoreRecordSyncFailureKeepsData(t *testing.T) {
	s := NewStore()
	require.True(t, s.MergeState(testState(), nil))

	s.RecordSyncFailure(errors.New("dial tcp: connection refused"))

	snap := s.Snapshot()
	assert.True(t, snap.Ready)
	assert.Len(t, snap.Machines, 3)
	require.Error(t, snap.LastError)
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.False(t, snap.Offline())

	s.RecordSyncFailure(errors.New("dial tcp: connection refused"))

	snap = s.Snapshot()
	assert.Equal(t, 2, snap.ConsecutiveFailures)
	assert.True(t, snap.Offline())
}

func TestStoreReset(t *testing.T) {
	s := NewStore()
	require.True(t, s.MergeState(testState(), nil))

	s.Reset()

	snap := s.Snapshot()
	assert.False(t, snap.Ready)
	assert.Nil(t, snap.Config)
	assert.Nil(t, snap.Profile)
	assert.Empty(t, snap.Machines)
	assert.Zero(t, snap.Player.OilBalance)
	assert.True(t, snap.LastSync.IsZero())
}

func TestWorldMachineByID(t *testing.T) {
	w := &World{Machines: []api.Machine{{ID: "m1"}, {ID: "m2"}}}

	require.NotNil(t, w.MachineByID("m2"))
	assert.Nil(t, w.MachineByID("m9"))

	// The pointer aliases the list entry, so edits land in place.
	w.MachineByID("m2").FuelLevel = 7
	assert.Equal(t, 7.0, w.Machines[1].FuelLevel)
}

func TestWorldRemoveMachine(t *testing.T) {
	w := &World{Machines: []api.Machine{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}}}

	removed, ok := w.RemoveMachine("m2")
	require.True(t, ok)
	assert.Equal(t, "m2", removed.ID)
	assert.Equal(t, []string{"m1", "m3"}, machineIDs(w.Machines))

	_, ok = w.RemoveMachine("m2")
	assert.False(t, ok)
}

func TestWorldPutMachineInsertsSortedAndReplaces(t *testing.T) {
	w := &World{Machines: []api.Machine{{ID: "m1"}, {ID: "m5"}}}

	w.PutMachine(api.Machine{ID: "m3", Type: "drill"})
	require.Len(t, w.Machines, 3)
	assert.Equal(t, []string{"m1", "m3", "m5"}, machineIDs(w.Machines))

	w.PutMachine(api.Machine{ID: "m3", Type: "excavator"})
	require.Len(t, w.Machines, 3)
	assert.Equal(t, "excavator", w.Machines[1].Type)
}

func machineIDs(machines []api.Machine) []string {
	ids := make([]string, len(machines))
	for i, m := range machines {
		ids[i] = m.ID
	}
	return ids
}
