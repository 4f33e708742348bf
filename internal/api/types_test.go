package api

import (
	"testing"
	"time"
)

func testConfig() *GameConfig {
	return &GameConfig{
		UpgradeCostMultiplier: 1.5,
		MachineTypes: map[string]MachineType{
			"pumpjack": {Kind: "pumpjack", BaseCost: 100, MaxLevel: 5, TankSize: 50, Mineral: "quartz"},
		},
	}
}

func TestGameConfig_TankCapacityScalesWithLevel(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name  string
		kind  string
		level int
		want  float64
		ok    bool
	}{
		{"level one", "pumpjack", 1, 50, true},
		{"level three", "pumpjack", 3, 150, true},
		{"level clamped to one", "pumpjack", 0, 50, true},
		{"unknown kind", "derrick", 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cfg.TankCapacity(tt.kind, tt.level)
			if ok != tt.ok || got != tt.want {
				t.Errorf("TankCapacity(%q, %d) = %v, %v; want %v, %v", tt.kind, tt.level, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestGameConfig_UpgradeCostUsesFloor(t *testing.T) {
	cfg := testConfig()

	// floor(100 * 3 * 1.5) = 450
	cost, ok := cfg.UpgradeCost("pumpjack", 3)
	if !ok || cost != 450 {
		t.Fatalf("UpgradeCost = %v, %v; want 450, true", cost, ok)
	}

	// floor(100 * 1 * 1.5) = 150
	cost, ok = cfg.UpgradeCost("pumpjack", 1)
	if !ok || cost != 150 {
		t.Fatalf("UpgradeCost = %v, %v; want 150, true", cost, ok)
	}

	if _, ok := cfg.UpgradeCost("derrick", 1); ok {
		t.Fatal("UpgradeCost reported ok for unknown kind")
	}
}

func TestGameConfig_NilReceiverIsSafe(t *testing.T) {
	var cfg *GameConfig

	if _, ok := cfg.MachineType("pumpjack"); ok {
		t.Fatal("nil config reported a machine type")
	}
	if _, ok := cfg.TankCapacity("pumpjack", 1); ok {
		t.Fatal("nil config reported a tank capacity")
	}
	if _, ok := cfg.UpgradeCost("pumpjack", 1); ok {
		t.Fatal("nil config reported an upgrade cost")
	}
	if cfg.Clone() != nil {
		t.Fatal("nil config clone should stay nil")
	}
}

func TestPlayerState_CloneIsIndependent(t *testing.T) {
	claimed := time.Now()
	orig := PlayerState{
		OilBalance:     10,
		Minerals:       map[string]float64{"quartz": 4},
		LastDailyClaim: &claimed,
	}

	dup := orig.Clone()
	dup.Minerals["quartz"] = 99
	*dup.LastDailyClaim = claimed.Add(time.Hour)

	if orig.Minerals["quartz"] != 4 {
		t.Fatalf("clone shares minerals map: %v", orig.Minerals)
	}
	if !orig.LastDailyClaim.Equal(claimed) {
		t.Fatalf("clone shares timestamp pointer: %v", orig.LastDailyClaim)
	}
}

func TestCloneMachines_PreservesNilForAbsent(t *testing.T) {
	if CloneMachines(nil) != nil {
		t.Fatal("nil machine list should clone to nil")
	}

	processed := time.Now()
	src := []Machine{{ID: "m-2", LastProcessedAt: &processed}}
	dup := CloneMachines(src)
	*dup[0].LastProcessedAt = processed.Add(time.Minute)
	if !src[0].LastProcessedAt.Equal(processed) {
		t.Fatalf("clone shares timestamp pointer: %v", src[0].LastProcessedAt)
	}
}
