package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/engine"
)

// Controller is the surface the UI renders against. It is implemented by the
// app layer's session-aware controller and by test fakes.
type Controller interface {
	SignedIn() bool
	SignIn(ctx context.Context, token string) error
	SignOut() error
	PlayerName() string
	Snapshot() engine.Snapshot
	Enqueue(cmd engine.Command) <-chan error
	SetForeground(fg bool)
	RefreshNow()
	Notices() <-chan engine.Notice
}

// View represents the current active screen.
type View int

const (
	ViewSignIn View = iota
	ViewDashboard
)

const (
	defaultTick = time.Second
	maxToasts   = 4
	toastTTL    = 8 * time.Second
)

// Options configures the UI.
type Options struct {
	Context       context.Context
	Controller    Controller
	ThemeName     string
	OnThemeChange func(name string) // called when the player cycles the theme
	Tick          time.Duration     // snapshot re-read cadence; zero uses default
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx  context.Context
	ctrl Controller
	tick time.Duration

	// UI state
	theme         Theme
	onThemeChange func(string)
	width         int
	height        int
	ready         bool
	view          View

	// Sign-in state
	tokenInput textinput.Model
	busy       spinner.Model
	signingIn  bool
	signInErr  string

	// Dashboard state
	snapshot    engine.Snapshot
	lastUpdated time.Time
	selectedRow int
	showHelp    bool
	toasts      []engine.Notice

	now func() time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}
	theme := GetTheme(themeName)

	input := textinput.New()
	input.Placeholder = "session token"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = 256
	input.Width = 48
	input.Focus()

	busy := spinner.New()
	busy.Spinner = spinner.Dot

	view := ViewSignIn
	if opts.Controller != nil && opts.Controller.SignedIn() {
		view = ViewDashboard
	}

	return Model{
		ctx:           ctx,
		ctrl:          opts.Controller,
		tick:          tick,
		theme:         theme,
		onThemeChange: opts.OnThemeChange,
		view:          view,
		tokenInput:    input,
		busy:          busy,
		now:           time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.tick),
		waitForNoticeCmd(m.ctrl.Notices()),
	}
	if m.view == ViewDashboard {
		cmds = append(cmds, fetchSnapshotCmd(m.ctrl))
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.FocusMsg:
		m.ctrl.SetForeground(true)
		return m, nil

	case tea.BlurMsg:
		m.ctrl.SetForeground(false)
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = engine.Snapshot(msg)
		m.lastUpdated = m.now()
		m.clampSelection()
		return m, nil

	case noticeMsg:
		m.pushToast(engine.Notice(msg))
		return m, waitForNoticeCmd(m.ctrl.Notices())

	case signInResultMsg:
		return m.handleSignInResult(msg)

	case spinner.TickMsg:
		if !m.signingIn {
			return m, nil
		}
		var cmd tea.Cmd
		m.busy, cmd = m.busy.Update(msg)
		return m, cmd
	}

	if m.view == ViewSignIn {
		var cmd tea.Cmd
		m.tokenInput, cmd = m.tokenInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.view == ViewSignIn {
		return m.renderSignIn()
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderDashboard()
}

// handleKey routes keyboard input to the active screen.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.view == ViewSignIn {
		return m.handleSignInKey(msg)
	}
	if m.showHelp {
		// Any key closes help.
		m.showHelp = false
		return m, nil
	}
	return m.handleDashboardKey(msg)
}

// handleTick re-reads the mirror, expires stale toasts, and bounces the
// player back to sign-in when the session ends (logout or rejection).
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.expireToasts()

	cmds := []tea.Cmd{tickCmd(m.tick)}
	switch {
	case m.view == ViewDashboard && !m.ctrl.SignedIn():
		m.enterSignIn()
	case m.view == ViewSignIn && !m.signingIn && m.ctrl.SignedIn():
		// Session appeared out of band (another sign-in path).
		m.view = ViewDashboard
		cmds = append(cmds, fetchSnapshotCmd(m.ctrl))
	case m.view == ViewDashboard:
		cmds = append(cmds, fetchSnapshotCmd(m.ctrl))
	}
	return m, tea.Batch(cmds...)
}

// enterSignIn resets the sign-in screen state.
func (m *Model) enterSignIn() {
	m.view = ViewSignIn
	m.snapshot = engine.Snapshot{}
	m.selectedRow = 0
	m.showHelp = false
	m.signingIn = false
	m.tokenInput.Reset()
	m.tokenInput.Focus()
}

func (m *Model) pushToast(n engine.Notice) {
	m.toasts = append(m.toasts, n)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}

func (m *Model) expireToasts() {
	cutoff := m.now().Add(-toastTTL)
	kept := m.toasts[:0]
	for _, n := range m.toasts {
		if n.At.After(cutoff) {
			kept = append(kept, n)
		}
	}
	m.toasts = kept
}

// Messages

type tickMsg time.Time

type snapshotMsg engine.Snapshot

type noticeMsg engine.Notice

type signInResultMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(ctrl.Snapshot())
	}
}

// waitForNoticeCmd blocks on the notice feed and delivers the next entry.
// The handler re-arms it, so the feed drains one notice per Update cycle.
func waitForNoticeCmd(ch <-chan engine.Notice) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

// enqueueCmd submits the command and watches for local rejections. Server
// and transport failures already arrive through the notice feed; only
// outcomes the engine never saw (full queue, shutdown) need a toast made
// here. A signed-out rejection needs none: the next tick redirects to the
// sign-in screen.
func (m Model) enqueueCmd(cmd engine.Command) tea.Cmd {
	ch := m.ctrl.Enqueue(cmd)
	return func() tea.Msg {
		err := <-ch
		if err == nil {
			return nil
		}
		if errors.Is(err, engine.ErrQueueFull) || errors.Is(err, engine.ErrShuttingDown) {
			return noticeMsg(engine.Notice{
				Title:       "Action dropped",
				Description: err.Error(),
				Severity:    engine.SeverityWarning,
				At:          time.Now(),
			})
		}
		return nil
	}
}

// Run starts the Bubble Tea program. Focus reporting feeds the poller's
// foreground/background cadence.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context), tea.WithReportFocus())
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		// Context cancellation (SIGINT/SIGTERM) is a normal exit.
		return nil
	}
	return err
}
