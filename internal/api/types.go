package api

import (
	"math"
	"time"
)

// StateSnapshot mirrors the payload returned by GET /v1/state. It is the
// full canonical view of the player's world; Config and Profile may be
// omitted by the server, in which case previously known values remain valid.
type StateSnapshot struct {
	Config      *GameConfig  `json:"config,omitempty"`
	Profile     *Profile     `json:"profile,omitempty"`
	PlayerState *PlayerState `json:"playerState"`
	Machines    []Machine    `json:"machines"`
}

// ActionResult mirrors the payload returned by POST /v1/action. It is a
// partial canonical update: a nil field means the action left that part of
// the state unchanged.
type ActionResult struct {
	PlayerState *PlayerState `json:"playerState,omitempty"`
	Machines    []Machine    `json:"machines,omitempty"`
}

// Profile identifies the account behind the session token.
type Profile struct {
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	IsAdmin       bool   `json:"isAdmin"`
	HumanVerified bool   `json:"humanVerified"`
}

// PlayerState holds the player's balances and progression counters.
type PlayerState struct {
	OilBalance     float64            `json:"oilBalance"`
	DiamondBalance float64            `json:"diamondBalance"`
	Minerals       map[string]float64 `json:"minerals"`
	PurchasedSlots int                `json:"purchasedSlots"`
	MaxSlots       int                `json:"maxSlots"`
	LastDailyClaim *time.Time         `json:"lastDailyClaim,omitempty"`
	LastCashout    *time.Time         `json:"lastCashout,omitempty"`
}

// Clone returns a deep copy that shares no mutable data with the receiver.
func (p PlayerState) Clone() PlayerState {
	dup := p
	if p.Minerals != nil {
		dup.Minerals = make(map[string]float64, len(p.Minerals))
		for kind, count := range p.Minerals {
			dup.Minerals[kind] = count
		}
	}
	dup.LastDailyClaim = cloneTime(p.LastDailyClaim)
	dup.LastCashout = cloneTime(p.LastCashout)
	return dup
}

// Machine describes one owned mining machine. IDs are unique within the
// machine list; list order carries no meaning.
type Machine struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Level           int        `json:"level"`
	FuelLevel       float64    `json:"fuelLevel"`
	Active          bool       `json:"active"`
	LastProcessedAt *time.Time `json:"lastProcessedAt,omitempty"`
}

// Clone returns a copy that shares no pointers with the receiver.
func (m Machine) Clone() Machine {
	dup := m
	dup.LastProcessedAt = cloneTime(m.LastProcessedAt)
	return dup
}

// CloneMachines deep-copies a machine list. A nil input stays nil so callers
// can distinguish "absent" from "empty".
func CloneMachines(machines []Machine) []Machine {
	if machines == nil {
		return nil
	}
	dup := make([]Machine, len(machines))
	for i, m := range machines {
		dup[i] = m.Clone()
	}
	return dup
}

// GameConfig is the static-ish tuning data the server ships alongside state:
// machine definitions, progression multipliers, and pricing. The client
// treats it as a read-mostly cache refreshed only by state fetches.
type GameConfig struct {
	MachineTypes          map[string]MachineType `json:"machineTypes"`
	UpgradeCostMultiplier float64                `json:"upgradeCostMultiplier"`
	SlotCost              float64                `json:"slotCost"`
	DailyReward           float64                `json:"dailyReward"`
	ExchangeRates         map[string]float64     `json:"exchangeRates"`
}

// MachineType defines one purchasable machine kind.
type MachineType struct {
	Kind        string  `json:"kind"`
	DisplayName string  `json:"displayName"`
	BaseCost    float64 `json:"baseCost"`
	MaxLevel    int     `json:"maxLevel"`
	TankSize    float64 `json:"tankSize"`
	BaseYield   float64 `json:"baseYield"`
	Mineral     string  `json:"mineral"`
}

// MachineType looks up the definition for a machine kind. The receiver may
// be nil (config not fetched yet); lookups then report no definition.
func (c *GameConfig) MachineType(kind string) (MachineType, bool) {
	if c == nil {
		return MachineType{}, false
	}
	def, ok := c.MachineTypes[kind]
	return def, ok
}

// TankCapacity returns the fuel capacity of a machine kind at the given
// level. Capacity grows linearly: TankSize per level.
func (c *GameConfig) TankCapacity(kind string, level int) (float64, bool) {
	def, ok := c.MachineType(kind)
	if !ok || def.TankSize <= 0 {
		return 0, false
	}
	if level < 1 {
		level = 1
	}
	return def.TankSize * float64(level), true
}

// UpgradeCost returns the oil cost of upgrading a machine of the given kind
// from the given level: floor(baseCost × level × upgradeCostMultiplier).
func (c *GameConfig) UpgradeCost(kind string, level int) (float64, bool) {
	def, ok := c.MachineType(kind)
	if !ok || c.UpgradeCostMultiplier <= 0 {
		return 0, false
	}
	return math.Floor(def.BaseCost * float64(level) * c.UpgradeCostMultiplier), true
}

// MaxLevel returns the level cap for a machine kind.
func (c *GameConfig) MaxLevel(kind string) (int, bool) {
	def, ok := c.MachineType(kind)
	if !ok {
		return 0, false
	}
	return def.MaxLevel, true
}

// Clone returns a deep copy of the config. Nil stays nil.
func (c *GameConfig) Clone() *GameConfig {
	if c == nil {
		return nil
	}
	dup := *c
	if c.MachineTypes != nil {
		dup.MachineTypes = make(map[string]MachineType, len(c.MachineTypes))
		for kind, def := range c.MachineTypes {
			dup.MachineTypes[kind] = def
		}
	}
	if c.ExchangeRates != nil {
		dup.ExchangeRates = make(map[string]float64, len(c.ExchangeRates))
		for mineral, rate := range c.ExchangeRates {
			dup.ExchangeRates[mineral] = rate
		}
	}
	return &dup
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	dup := *t
	return &dup
}
