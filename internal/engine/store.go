package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/api"
)

// World is the mutable mirror of the server's state. It is only ever touched
// inside a Store transaction; nothing outside this package holds a reference
// to it.
type World struct {
	Config   *api.GameConfig
	Profile  *api.Profile
	Player   api.PlayerState
	Machines []api.Machine
}

// MachineByID returns a pointer into the machine list for in-place mutation,
// or nil when the ID is unknown.
func (w *World) MachineByID(id string) *api.Machine {
	for i := range w.Machines {
		if w.Machines[i].ID == id {
			return &w.Machines[i]
		}
	}
	return nil
}

// RemoveMachine deletes the machine with the given ID and returns it.
func (w *World) RemoveMachine(id string) (api.Machine, bool) {
	for i := range w.Machines {
		if w.Machines[i].ID == id {
			removed := w.Machines[i]
			w.Machines = append(w.Machines[:i], w.Machines[i+1:]...)
			return removed, true
		}
	}
	return api.Machine{}, false
}

// PutMachine replaces the machine with a matching ID, or inserts it and
// re-sorts the list by ID. Rollback of both field edits and removals goes
// through here, so a reverted discard lands in a deterministic position.
func (w *World) PutMachine(m api.Machine) {
	for i := range w.Machines {
		if w.Machines[i].ID == m.ID {
			w.Machines[i] = m
			return
		}
	}
	w.Machines = append(w.Machines, m)
	sort.Slice(w.Machines, func(i, j int) bool {
		return w.Machines[i].ID < w.Machines[j].ID
	})
}

// Snapshot is the read-only view handed to the UI. All reference fields are
// deep copies; mutating a snapshot never touches the mirror.
type Snapshot struct {
	Ready               bool // first successful fetch has landed
	Config              *api.GameConfig
	Profile             *api.Profile
	Player              api.PlayerState
	Machines            []api.Machine
	LastSync            time.Time
	LastError           error
	ConsecutiveFailures int
}

// Offline reports whether the API has been unreachable for multiple polls.
func (s Snapshot) Offline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent access to the world mirror. Readers get
// deep-copied snapshots; all writes run under the write lock so a mutation
// transaction (read, compute, write) is atomic with respect to merges.
type Store struct {
	mu                  sync.RWMutex
	world               World
	ready               bool
	lastSync            time.Time
	lastError           error
	consecutiveFailures int
}

// NewStore returns an empty mirror.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a deep copy of the current mirror.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Ready:               s.ready,
		Config:              s.world.Config.Clone(),
		Player:              s.world.Player.Clone(),
		Machines:            api.CloneMachines(s.world.Machines),
		LastSync:            s.lastSync,
		ConsecutiveFailures: s.consecutiveFailures,
	}
	if s.world.Profile != nil {
		profile := *s.world.Profile
		snap.Profile = &profile
	}
	if s.lastError != nil {
		snap.LastError = fmt.Errorf("%w", s.lastError)
	}
	return snap
}

// Write runs fn as a mutation transaction under the write lock.
func (s *Store) Write(fn func(*World)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.world)
}

// MergeState replaces the mirror with a full canonical snapshot, but only if
// guard still holds once the write lock is taken. The guard is how the poll
// path discards results that raced with a newer local mutation: checking it
// under the same lock that applies the merge closes the check-then-merge gap.
// Returns false when the merge was discarded.
func (s *Store) MergeState(snap *api.StateSnapshot, guard func() bool) bool {
	if snap == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if guard != nil && !guard() {
		return false
	}
	if snap.Config != nil {
		s.world.Config = snap.Config.Clone()
	}
	if snap.Profile != nil {
		profile := *snap.Profile
		s.world.Profile = &profile
	}
	if snap.PlayerState != nil {
		s.world.Player = snap.PlayerState.Clone()
	}
	s.world.Machines = api.CloneMachines(snap.Machines)
	s.ready = true
	s.lastSync = time.Now()
	s.lastError = nil
	s.consecutiveFailures = 0
	return true
}

// MergeActionResult applies a partial canonical update from a reconciled
// command. Nil fields mean "unchanged by this action" and keep whatever the
// mirror currently holds, optimistic or otherwise.
func (s *Store) MergeActionResult(res *api.ActionResult) {
	if res == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.PlayerState != nil {
		s.world.Player = res.PlayerState.Clone()
	}
	if res.Machines != nil {
		s.world.Machines = api.CloneMachines(res.Machines)
	}
	s.lastSync = time.Now()
	s.lastError = nil
	s.consecutiveFailures = 0
}

// RecordSyncFailure keeps the mirror's data but records the error for
// visibility and bumps the failure counter feeding the offline indicator.
func (s *Store) RecordSyncFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err
	s.consecutiveFailures++
}

// Reset empties the mirror. Used when the session ends: local speculation
// must not outlive the account it belongs to.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.world = World{}
	s.ready = false
	s.lastSync = time.Time{}
	s.lastError = nil
	s.consecutiveFailures = 0
}
