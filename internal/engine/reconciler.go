package engine

import (
	"time"
)

// speculateFn applies a kind's optimistic delta to the world and returns an
// undo closure that restores exactly what it changed. Returning nil means the
// command made no local change and there is nothing to roll back; the action
// is still sent to the server, which stays authoritative either way.
//
// Speculation runs inside a single Store.Write transaction, so the
// read-compute-write below is atomic and the undo closures can safely capture
// absolute prior values: with at most one command in flight and poll merges
// fenced by the sequence guard, nothing else writes between apply and undo.
type speculateFn func(w *World, cmd Command, now time.Time) func(*World)

// speculators maps each command kind to its optimistic delta. Kinds that are
// absent here (exchange, purchases, daily claim, cashout) are server-priced:
// the client cannot predict the outcome, so it waits for the partial result.
var speculators = map[Kind]speculateFn{
	KindStartMachine:   speculateSetActive(true),
	KindStopMachine:    speculateSetActive(false),
	KindDiscardMachine: speculateDiscard,
	KindFuelMachine:    speculateFuel,
	KindUpgradeMachine: speculateUpgrade,
}

func speculateSetActive(active bool) speculateFn {
	return func(w *World, cmd Command, now time.Time) func(*World) {
		m := w.MachineByID(cmd.MachineID)
		if m == nil {
			return nil
		}
		prior := m.Clone()
		ts := now
		m.Active = active
		m.LastProcessedAt = &ts
		return func(w *World) {
			w.PutMachine(prior)
		}
	}
}

// speculateDiscard removes the machine with no refund. Undo reinserts the
// captured copy; PutMachine re-sorts by ID so the revert is deterministic.
func speculateDiscard(w *World, cmd Command, _ time.Time) func(*World) {
	removed, ok := w.RemoveMachine(cmd.MachineID)
	if !ok {
		return nil
	}
	prior := removed.Clone()
	return func(w *World) {
		w.PutMachine(prior)
	}
}

// speculateFuel loads fill = min(needed, requested, OilBalance) into the
// tank and debits the same amount of oil. Amount == 0 means "fill the tank".
// Without tuning data (config or the machine's type entry missing) there is
// no safe capacity bound, so no local change is made at all: an unbounded
// fill could push FuelLevel past the tank.
func speculateFuel(w *World, cmd Command, _ time.Time) func(*World) {
	m := w.MachineByID(cmd.MachineID)
	if m == nil {
		return nil
	}
	capacity, ok := w.Config.TankCapacity(m.Type, m.Level)
	if !ok {
		return nil
	}
	needed := capacity - m.FuelLevel
	if needed < 0 {
		needed = 0
	}
	requested := needed
	if cmd.Amount > 0 {
		requested = cmd.Amount
	}
	fill := needed
	if requested < fill {
		fill = requested
	}
	if w.Player.OilBalance < fill {
		fill = w.Player.OilBalance
	}
	if fill <= 0 {
		return nil
	}
	prior := m.Clone()
	priorOil := w.Player.OilBalance
	m.FuelLevel += fill
	w.Player.OilBalance -= fill
	return func(w *World) {
		w.PutMachine(prior)
		w.Player.OilBalance = priorOil
	}
}

// speculateUpgrade bumps the level and debits floor(baseCost × level ×
// multiplier) oil, but only when the mirror can already tell the upgrade is
// affordable and below the level cap. Otherwise the action goes out with no
// local change and the server's answer settles it.
func speculateUpgrade(w *World, cmd Command, _ time.Time) func(*World) {
	m := w.MachineByID(cmd.MachineID)
	if m == nil {
		return nil
	}
	cost, ok := w.Config.UpgradeCost(m.Type, m.Level)
	if !ok {
		return nil
	}
	if maxLevel, ok := w.Config.MaxLevel(m.Type); ok && m.Level >= maxLevel {
		return nil
	}
	if w.Player.OilBalance < cost {
		return nil
	}
	prior := m.Clone()
	priorOil := w.Player.OilBalance
	m.Level++
	w.Player.OilBalance -= cost
	return func(w *World) {
		w.PutMachine(prior)
		w.Player.OilBalance = priorOil
	}
}
