package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// handleSignInKey processes keyboard input on the sign-in screen. While a
// probe is running only quit works; everything else waits for the result.
func (m Model) handleSignInKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.signingIn {
		return m, nil
	}

	switch msg.String() {
	case "enter":
		token := strings.TrimSpace(m.tokenInput.Value())
		if token == "" {
			m.signInErr = "Enter a session token."
			return m, nil
		}
		m.signingIn = true
		m.signInErr = ""
		return m, tea.Batch(m.signInCmd(token), m.busy.Tick)

	case "esc":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.tokenInput, cmd = m.tokenInput.Update(msg)
	return m, cmd
}

// signInCmd probes the token off the UI goroutine so typing stays live while
// the network call runs.
func (m Model) signInCmd(token string) tea.Cmd {
	return func() tea.Msg {
		return signInResultMsg{err: m.ctrl.SignIn(m.ctx, token)}
	}
}

func (m Model) handleSignInResult(msg signInResultMsg) (tea.Model, tea.Cmd) {
	m.signingIn = false
	if msg.err != nil {
		m.signInErr = msg.err.Error()
		m.tokenInput.Focus()
		return m, nil
	}
	m.view = ViewDashboard
	m.signInErr = ""
	m.tokenInput.Reset()
	return m, fetchSnapshotCmd(m.ctrl)
}

// renderSignIn renders the token prompt centered in the window.
func (m Model) renderSignIn() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("minedeck"))
	b.WriteString(styles.MutedText.Render("  —  Mineworks terminal client"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render("Paste your Mineworks session token to connect."))
	b.WriteString("\n\n")
	b.WriteString(m.tokenInput.View())
	b.WriteString("\n\n")

	switch {
	case m.signingIn:
		b.WriteString(m.busy.View())
		b.WriteString(styles.MutedText.Render(" validating token..."))
	case m.signInErr != "":
		b.WriteString(styles.DangerText.Render(truncate(m.signInErr, 72)))
	default:
		b.WriteString(styles.FaintText.Render("The token never leaves this machine except toward the API."))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter sign in • esc quit"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Padding(1, 3).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
