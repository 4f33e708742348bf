package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/api"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/engine"
)

func TestMachineStatus(t *testing.T) {
	cases := []struct {
		name string
		in   api.Machine
		want string
	}{
		{"running", api.Machine{Active: true, FuelLevel: 10}, "running"},
		{"dry", api.Machine{Active: true, FuelLevel: 0}, "dry"},
		{"idle", api.Machine{Active: false, FuelLevel: 10}, "idle"},
		{"idle_empty", api.Machine{}, "idle"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := machineStatus(tc.in); got != tc.want {
				t.Fatalf("machineStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSortedMachinesOrdersByID(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)

	machines := m.sortedMachines()
	if len(machines) != 2 || machines[0].ID != "m-1" || machines[1].ID != "m-2" {
		t.Fatalf("sorted order = %v", machines)
	}

	// The snapshot's own order is left alone.
	if m.snapshot.Machines[0].ID != "m-2" {
		t.Fatalf("sortedMachines mutated the snapshot")
	}
}

func TestSelectedMachineFollowsSortedOrder(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)

	if sel := m.selectedMachine(); sel == nil || sel.ID != "m-1" {
		t.Fatalf("selected = %v, want m-1", sel)
	}

	m.selectedRow = 1
	if sel := m.selectedMachine(); sel == nil || sel.ID != "m-2" {
		t.Fatalf("selected = %v, want m-2", sel)
	}

	m.selectedRow = 5
	if sel := m.selectedMachine(); sel != nil {
		t.Fatalf("out of range selection = %v, want nil", sel)
	}
}

func TestClampSelection(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)

	m.selectedRow = 9
	m.clampSelection()
	if m.selectedRow != 1 {
		t.Fatalf("clamped to %d, want 1", m.selectedRow)
	}

	m.snapshot.Machines = nil
	m.clampSelection()
	if m.selectedRow != 0 {
		t.Fatalf("empty list clamped to %d, want 0", m.selectedRow)
	}
}

func TestPickPurchaseType(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)

	if got := m.pickPurchaseType(); got != "drill" {
		t.Fatalf("pickPurchaseType = %q, want drill (cheapest)", got)
	}

	// Price tie breaks toward the lexicographically smaller kind.
	m.snapshot.Config.MachineTypes["auger"] = api.MachineType{Kind: "auger", BaseCost: 100}
	if got := m.pickPurchaseType(); got != "auger" {
		t.Fatalf("pickPurchaseType tie = %q, want auger", got)
	}

	m.snapshot.Config = nil
	if got := m.pickPurchaseType(); got != "" {
		t.Fatalf("pickPurchaseType without config = %q, want empty", got)
	}
}

func TestPickExchangeMineral(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)

	if got := m.pickExchangeMineral(); got != "obsidian" {
		t.Fatalf("pickExchangeMineral = %q, want obsidian (largest)", got)
	}

	m.snapshot.Player.Minerals = map[string]float64{"quartz": 10, "basalt": 10}
	if got := m.pickExchangeMineral(); got != "basalt" {
		t.Fatalf("pickExchangeMineral tie = %q, want basalt", got)
	}

	m.snapshot.Player.Minerals = map[string]float64{"quartz": 0}
	if got := m.pickExchangeMineral(); got != "" {
		t.Fatalf("pickExchangeMineral empty stacks = %q, want empty", got)
	}
}

func TestColorForStatusFallsBack(t *testing.T) {
	ctrl := newFakeController()
	m := newDashboardModel(ctrl)

	if got := m.colorForStatus("running"); got != m.theme.StatusColors["running"] {
		t.Fatalf("colorForStatus(running) = %q", got)
	}
	if got := m.colorForStatus("bogus"); got != m.theme.Text {
		t.Fatalf("colorForStatus(bogus) = %q, want text color", got)
	}
}

func TestRenderDashboardShowsWorld(t *testing.T) {
	ctrl := newFakeController()
	ctrl.name = "Wren"
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)

	out := m.renderDashboard()

	for _, want := range []string{
		"minedeck", "Wren", "LIVE",
		"m-1", "m-2", "Drill", "Excavator",
		"RUNNING", "DRY",
		"1,200",    // oil balance
		"obsidian", // minerals line
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDashboardOfflineIndicator(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	ctrl.snap.ConsecutiveFailures = 2
	m := newDashboardModel(ctrl)

	if out := m.renderDashboard(); !strings.Contains(out, "OFFLINE") {
		t.Fatalf("dashboard missing offline indicator")
	}
}

func TestRenderDashboardSyncingPlaceholder(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = engine.Snapshot{}
	m := newDashboardModel(ctrl)

	if out := m.renderDashboard(); !strings.Contains(out, "Syncing") {
		t.Fatalf("dashboard missing syncing placeholder")
	}
}

func TestRenderDashboardShowsToasts(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)
	m.pushToast(engine.Notice{
		Title:       "Upgrade failed",
		Description: "insufficient oil",
		Severity:    engine.SeverityError,
		At:          time.Now(),
	})

	out := m.renderDashboard()
	if !strings.Contains(out, "Upgrade") || !strings.Contains(out, "insufficient") {
		t.Fatalf("dashboard missing toast:\n%s", out)
	}
}

func TestRenderSignInShowsPrompt(t *testing.T) {
	ctrl := newFakeController()
	m := New(Options{Controller: ctrl})
	m.width, m.height, m.ready = 80, 24, true

	out := m.renderSignIn()
	if !strings.Contains(out, "minedeck") || !strings.Contains(out, "token") {
		t.Fatalf("sign-in screen missing prompt:\n%s", out)
	}

	m.signInErr = "session expired"
	if out := m.renderSignIn(); !strings.Contains(out, "expired") {
		t.Fatalf("sign-in screen missing error line")
	}
}

func TestRenderHelpListsCommandKeys(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)
	m.showHelp = true

	out := m.View()
	for _, want := range []string{"Shortcuts", "Upgrade", "Exchange", "daily"} {
		if !strings.Contains(out, want) {
			t.Fatalf("help missing %q", want)
		}
	}
}

func TestSelectionLineShowsCosts(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = testSnapshot()
	m := newDashboardModel(ctrl)

	// m-1: drill level 2, fuel 30/100, upgrade floor(100*2*1.5) = 300.
	out := m.renderSelectionLine()
	if !strings.Contains(out, "refill 70") {
		t.Fatalf("selection line missing refill cost: %s", out)
	}
	if !strings.Contains(out, "upgrade 300") {
		t.Fatalf("selection line missing upgrade cost: %s", out)
	}

	// Max-level machines advertise the cap instead of a price.
	m.snapshot.Machines = []api.Machine{{ID: "m-9", Type: "drill", Level: 5}}
	m.selectedRow = 0
	if out := m.renderSelectionLine(); !strings.Contains(out, "max level") {
		t.Fatalf("selection line missing level cap: %s", out)
	}
}
