package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/api"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/engine"
)

// handleDashboardKey processes keyboard input on the dashboard.
func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "j", "down":
		if m.selectedRow < len(m.snapshot.Machines)-1 {
			m.selectedRow++
		}
		return m, nil

	case "k", "up":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
		return m, nil

	case "r":
		m.ctrl.RefreshNow()
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.onThemeChange != nil {
			m.onThemeChange(m.theme.Name)
		}
		return m, nil

	case "o":
		if err := m.ctrl.SignOut(); err != nil {
			m.pushToast(engine.Notice{
				Title:       "Sign out failed",
				Description: err.Error(),
				Severity:    engine.SeverityWarning,
				At:          m.now(),
			})
			return m, nil
		}
		m.enterSignIn()
		return m, textinput.Blink

	case "s":
		return m.enqueueForSelected(engine.KindStartMachine)

	case "x":
		return m.enqueueForSelected(engine.KindStopMachine)

	case "f":
		// Amount zero means "fill the tank".
		return m.enqueueForSelected(engine.KindFuelMachine)

	case "u":
		return m.enqueueForSelected(engine.KindUpgradeMachine)

	case "d":
		return m.enqueueForSelected(engine.KindDiscardMachine)

	case "b":
		kind := m.pickPurchaseType()
		if kind == "" {
			m.pushToast(engine.Notice{
				Title:    "No machine types on offer",
				Severity: engine.SeverityWarning,
				At:       m.now(),
			})
			return m, nil
		}
		return m, m.enqueueCmd(engine.Command{Kind: engine.KindBuyMachine, MachineType: kind})

	case "S":
		return m, m.enqueueCmd(engine.Command{Kind: engine.KindBuySlot})

	case "e":
		mineral := m.pickExchangeMineral()
		if mineral == "" {
			m.pushToast(engine.Notice{
				Title:    "Nothing to exchange",
				Severity: engine.SeverityWarning,
				At:       m.now(),
			})
			return m, nil
		}
		return m, m.enqueueCmd(engine.Command{Kind: engine.KindExchangeMinerals, Mineral: mineral})

	case "c":
		return m, m.enqueueCmd(engine.Command{Kind: engine.KindClaimDaily})

	case "w":
		return m, m.enqueueCmd(engine.Command{Kind: engine.KindCashout})
	}

	return m, nil
}

// enqueueForSelected submits a command targeting the selected machine.
func (m Model) enqueueForSelected(kind engine.Kind) (tea.Model, tea.Cmd) {
	sel := m.selectedMachine()
	if sel == nil {
		m.pushToast(engine.Notice{
			Title:    "No machine selected",
			Severity: engine.SeverityWarning,
			At:       m.now(),
		})
		return m, nil
	}
	return m, m.enqueueCmd(engine.Command{Kind: kind, MachineID: sel.ID})
}

// sortedMachines returns the mirror's machines ordered by ID so row indexes
// stay stable across polls.
func (m Model) sortedMachines() []api.Machine {
	machines := make([]api.Machine, len(m.snapshot.Machines))
	copy(machines, m.snapshot.Machines)
	sort.Slice(machines, func(i, j int) bool {
		return machines[i].ID < machines[j].ID
	})
	return machines
}

// selectedMachine returns a copy of the machine under the cursor, or nil.
func (m Model) selectedMachine() *api.Machine {
	machines := m.sortedMachines()
	if m.selectedRow < 0 || m.selectedRow >= len(machines) {
		return nil
	}
	mc := machines[m.selectedRow]
	return &mc
}

// clampSelection keeps the cursor inside the machine list after a merge
// shrinks it.
func (m *Model) clampSelection() {
	count := len(m.snapshot.Machines)
	if count == 0 {
		m.selectedRow = 0
		return
	}
	if m.selectedRow >= count {
		m.selectedRow = count - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// pickPurchaseType returns the cheapest machine kind on offer. Ties break
// toward the lexicographically smaller kind so the choice is deterministic.
func (m Model) pickPurchaseType() string {
	cfg := m.snapshot.Config
	if cfg == nil {
		return ""
	}
	var bestKind string
	bestCost := math.Inf(1)
	for kind, def := range cfg.MachineTypes {
		if bestKind == "" || def.BaseCost < bestCost || (def.BaseCost == bestCost && kind < bestKind) {
			bestKind, bestCost = kind, def.BaseCost
		}
	}
	return bestKind
}

// pickExchangeMineral returns the mineral with the largest holding, skipping
// empty stacks. Ties break toward the lexicographically smaller name.
func (m Model) pickExchangeMineral() string {
	var best string
	var bestAmt float64
	for mineral, amt := range m.snapshot.Player.Minerals {
		if amt <= 0 {
			continue
		}
		if best == "" || amt > bestAmt || (amt == bestAmt && mineral < best) {
			best, bestAmt = mineral, amt
		}
	}
	return best
}

// machineStatus classifies a machine for display. Active machines with an
// empty tank are "dry": they earn nothing until refueled.
func machineStatus(mc api.Machine) string {
	switch {
	case mc.Active && mc.FuelLevel > 0:
		return "running"
	case mc.Active:
		return "dry"
	default:
		return "idle"
	}
}

// colorForStatus returns the theme color for a machine status.
func (m Model) colorForStatus(status string) string {
	if color, ok := m.theme.StatusColors[status]; ok {
		return color
	}
	return m.theme.Text
}

// renderDashboard renders the machine overview screen.
func (m Model) renderDashboard() string {
	styles := m.theme.Styles()
	header := m.renderHeader()
	footer := m.renderCommandBar()

	if !m.snapshot.Ready {
		msg := styles.MutedText.Render("Syncing with Mineworks...")
		body := lipgloss.Place(m.width, max(m.height-2, 1), lipgloss.Center, lipgloss.Center, msg)
		return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	}

	sections := []string{
		"",
		m.renderMachineTable(),
		"",
		m.renderSelectionLine(),
		m.renderMineralsLine(),
	}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, "", toasts)
	}
	body := strings.Join(sections, "\n")

	// Pad so the command bar sits on the bottom row.
	used := lipgloss.Height(header) + lipgloss.Height(body) + lipgloss.Height(footer)
	if pad := m.height - used; pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderHeader renders the status bar: identity, liveness, balances, sync age.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	snap := m.snapshot

	parts := []string{bg.Render("minedeck", styles.Logo)}

	if name := m.ctrl.PlayerName(); name != "" {
		parts = append(parts, bg.Render(truncate(name, 20), styles.Text))
	}

	switch {
	case !snap.Ready:
		parts = append(parts, bg.Render("● SYNCING", styles.WarningText))
	case snap.Offline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	default:
		parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
	}

	if snap.Ready {
		parts = append(parts,
			bg.Render("Oil:", styles.MutedText)+bg.Space()+
				bg.Render(fmtQty(snap.Player.OilBalance), styles.AccentText),
			bg.Render("Diamonds:", styles.MutedText)+bg.Space()+
				bg.Render(fmtQty(snap.Player.DiamondBalance), styles.InfoText),
			bg.Render("Slots:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d/%d", len(snap.Machines), snap.Player.PurchasedSlots), styles.Text),
		)
	}

	parts = append(parts,
		bg.Render("Sync:", styles.MutedText)+bg.Space()+
			bg.Render(syncLabel(snap.LastSync, m.now()), styles.MutedText))

	if snap.LastError != nil {
		errText := truncate(snap.LastError.Error(), 60)
		parts = append(parts, bg.Render("ERROR", styles.DangerText)+bg.Space()+
			bg.Render(errText, styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderMachineTable renders the machine list with the cursor row highlighted.
func (m Model) renderMachineTable() string {
	styles := m.theme.Styles()
	machines := m.sortedMachines()
	if len(machines) == 0 {
		return styles.MutedText.Render("  No machines. Press b to buy one.")
	}

	head := fmt.Sprintf("  %-14s %-16s %4s %16s  %-8s %-10s",
		"ID", "TYPE", "LVL", "FUEL", "STATUS", "MINERAL")
	lines := []string{styles.FaintText.Render(head)}

	for i, mc := range machines {
		lines = append(lines, m.formatMachineRow(mc, i == m.selectedRow))
	}
	return strings.Join(lines, "\n")
}

// formatMachineRow formats one table row. Selected rows get the selection
// background across the full width; others color only the status cell.
func (m Model) formatMachineRow(mc api.Machine, selected bool) string {
	styles := m.theme.Styles()
	cfg := m.snapshot.Config

	fuel := fmtQty(mc.FuelLevel)
	if capacity, ok := cfg.TankCapacity(mc.Type, mc.Level); ok {
		fuel += "/" + fmtQty(capacity)
	}

	name := mc.Type
	mineral := "-"
	if def, ok := cfg.MachineType(mc.Type); ok {
		if def.DisplayName != "" {
			name = def.DisplayName
		}
		if def.Mineral != "" {
			mineral = def.Mineral
		}
	}

	status := machineStatus(mc)
	marker := "  "
	if selected {
		marker = "> "
	}

	left := fmt.Sprintf("%s%-14s %-16s %4d %16s  ",
		marker, truncate(mc.ID, 14), truncate(name, 16), mc.Level, truncate(fuel, 16))
	statusCell := fmt.Sprintf("%-8s", strings.ToUpper(status))
	right := fmt.Sprintf(" %-10s", truncate(mineral, 10))

	if selected {
		return styles.Selected.Width(m.width).Render(left + statusCell + right)
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.colorForStatus(status)))
	return styles.Text.Render(left) + statusStyle.Render(statusCell) + styles.MutedText.Render(right)
}

// renderSelectionLine shows the selected machine with the costs of the
// actions available to it.
func (m Model) renderSelectionLine() string {
	styles := m.theme.Styles()
	sel := m.selectedMachine()
	if sel == nil {
		return "  " + styles.FaintText.Render("Select a machine with j/k.")
	}

	status := machineStatus(*sel)
	badge := styles.StatusStyle(status).Render(strings.ToUpper(status))
	parts := []string{badge, styles.Text.Render(truncate(sel.ID, 20))}

	cfg := m.snapshot.Config
	if capacity, ok := cfg.TankCapacity(sel.Type, sel.Level); ok {
		need := capacity - sel.FuelLevel
		if need < 0 {
			need = 0
		}
		parts = append(parts, styles.MutedText.Render(fmt.Sprintf("refill %s oil", fmtQty(need))))
	}
	if cost, ok := cfg.UpgradeCost(sel.Type, sel.Level); ok {
		label := fmt.Sprintf("upgrade %s oil", fmtQty(cost))
		if maxLevel, capped := cfg.MaxLevel(sel.Type); capped && sel.Level >= maxLevel {
			label = "max level"
		}
		parts = append(parts, styles.MutedText.Render(label))
	}

	return "  " + strings.Join(parts, "  ")
}

// renderMineralsLine lists mined holdings in name order.
func (m Model) renderMineralsLine() string {
	styles := m.theme.Styles()
	minerals := m.snapshot.Player.Minerals
	if len(minerals) == 0 {
		return "  " + styles.FaintText.Render("No minerals mined yet.")
	}

	names := make([]string, 0, len(minerals))
	for name := range minerals {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, styles.MutedText.Render(name)+" "+styles.Text.Render(fmtQty(minerals[name])))
	}
	return "  " + styles.FaintText.Render("minerals") + "  " + strings.Join(parts, styles.FaintText.Render("  ·  "))
}

// renderToasts renders recent notices, oldest first.
func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	styles := m.theme.Styles()

	lines := make([]string, 0, len(m.toasts))
	for _, n := range m.toasts {
		glyph, style := toastGlyph(n.Severity, styles)
		text := n.Title
		if n.Description != "" {
			text += ": " + n.Description
		}
		lines = append(lines,
			"  "+styles.FaintText.Render(n.At.Format("15:04:05"))+" "+
				style.Render(glyph)+" "+
				styles.Text.Render(truncate(text, max(m.width-14, 10))))
	}
	return strings.Join(lines, "\n")
}

func toastGlyph(sev engine.Severity, styles Styles) (string, lipgloss.Style) {
	switch sev {
	case engine.SeveritySuccess:
		return "✓", styles.SuccessText
	case engine.SeverityWarning:
		return "!", styles.WarningText
	case engine.SeverityError:
		return "✗", styles.DangerText
	default:
		return "•", styles.InfoText
	}
}

// renderCommandBar renders the key hint bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"j/k", "Select"},
		{"s/x", "Start/Stop"},
		{"f", "Fuel"},
		{"u", "Upgrade"},
		{"d", "Discard"},
		{"b", "Buy"},
		{"S", "Slot"},
		{"e", "Exchange"},
		{"c", "Daily"},
		{"w", "Cashout"},
		{"r", "Refresh"},
		{"?", "More"},
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Footer.Width(m.width).Render(strings.Join(segments, sep))
}
