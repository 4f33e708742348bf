package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/api"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/engine"
	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/session"
)

// ErrNotSignedIn resolves commands issued while no session exists. Nothing
// was sent to the server.
var ErrNotSignedIn = errors.New("not signed in")

// ProbeFunc validates a candidate token by fetching state with it. It exists
// so sign-in can be tested without a real API client.
type ProbeFunc func(ctx context.Context, token string) (*api.StateSnapshot, error)

// ControllerOptions configures a Controller. Client, Probe, and Sessions are
// required.
type ControllerOptions struct {
	Client         api.StateClient
	Probe          ProbeFunc
	Sessions       *session.Store
	Log            zerolog.Logger
	PollForeground time.Duration
	PollBackground time.Duration
	FeedSize       int
}

// Controller ties the sync engine's lifetime to the session slot: while a
// session exists there is exactly one running engine mirroring that account,
// and when the slot clears (sign-out or server-side rejection) the engine is
// cancelled and dropped, mirror and all. The UI talks only to the Controller,
// which proxies to whichever engine is current.
type Controller struct {
	client   api.StateClient
	probe    ProbeFunc
	sessions *session.Store
	feed     *engine.Feed
	log      zerolog.Logger

	pollForeground time.Duration
	pollBackground time.Duration

	mu         sync.Mutex
	root       context.Context
	eng        *engine.Engine
	cancel     context.CancelFunc
	foreground bool
	unsub      func()
}

// NewController builds a Controller. Call Start before handing it to the UI.
func NewController(opts ControllerOptions) *Controller {
	feedSize := opts.FeedSize
	if feedSize <= 0 {
		feedSize = 32
	}
	return &Controller{
		client:         opts.Client,
		probe:          opts.Probe,
		sessions:       opts.Sessions,
		feed:           engine.NewFeed(feedSize),
		log:            opts.Log.With().Str("component", "controller").Logger(),
		pollForeground: opts.PollForeground,
		pollBackground: opts.PollBackground,
		foreground:     true,
	}
}

// Start subscribes to session changes and, if a session is already stored,
// brings up its engine. Engines created later inherit ctx, so cancelling it
// winds everything down.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.root = ctx
	c.mu.Unlock()

	c.unsub = c.sessions.OnChange(func(sess *session.Session) {
		if sess == nil {
			c.stopEngine()
			return
		}
		c.startEngine()
	})

	if c.sessions.Get() != nil {
		c.startEngine()
	}
}

// Close stops the current engine and detaches from the session store.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
	}
	c.stopEngine()
}

// startEngine replaces any running engine with a fresh one: new mirror, new
// sequence counter, new auth latch. Called on sign-in and when the stored
// session is swapped for a different account.
func (c *Controller) startEngine() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	if c.root == nil || c.root.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(c.root)
	eng := engine.New(engine.Options{
		Client:         c.client,
		Sessions:       c.sessions,
		Notifier:       c.feed,
		Log:            c.log,
		PollForeground: c.pollForeground,
		PollBackground: c.pollBackground,
	})
	eng.SetForeground(c.foreground)

	c.eng = eng
	c.cancel = cancel
	go eng.Run(ctx)
	c.log.Info().Msg("engine started")
}

// stopEngine cancels the current engine without waiting for it: this runs on
// the session store's notify path, which an engine goroutine itself walks
// when an auth failure clears the slot. The cancelled engine drains its own
// queue and exits.
func (c *Controller) stopEngine() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.eng = nil
	c.log.Info().Msg("engine stopped")
}

func (c *Controller) current() *engine.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng
}

// SignedIn reports whether a session is stored.
func (c *Controller) SignedIn() bool {
	return c.sessions.Get() != nil
}

// PlayerName returns the stored session's player name, or "".
func (c *Controller) PlayerName() string {
	if sess := c.sessions.Get(); sess != nil {
		return sess.PlayerName
	}
	return ""
}

// SignIn validates the candidate token against the API and, on success,
// persists the session derived from it. The session change brings up the
// engine; by the time SignIn returns nil the dashboard can start reading
// snapshots.
func (c *Controller) SignIn(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is empty")
	}

	snap, err := c.probe(ctx, token)
	if err != nil {
		c.log.Warn().Err(err).Msg("sign-in probe rejected")
		return err
	}

	sess := session.Session{Token: token}
	if snap != nil && snap.Profile != nil {
		sess.UserID = snap.Profile.UserID
		sess.PlayerName = snap.Profile.Name
		sess.IsAdmin = snap.Profile.IsAdmin
		sess.HumanVerified = snap.Profile.HumanVerified
	}
	if err := c.sessions.Set(sess); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	c.log.Info().Str("user_id", sess.UserID).Msg("signed in")
	return nil
}

// SignOut clears the session slot, which tears the engine down via the
// change notification.
func (c *Controller) SignOut() error {
	return c.sessions.Clear()
}

// Snapshot returns the current engine's mirror snapshot, or a zero snapshot
// (Ready == false) while signed out.
func (c *Controller) Snapshot() engine.Snapshot {
	eng := c.current()
	if eng == nil {
		return engine.Snapshot{}
	}
	return eng.Snapshot()
}

// Enqueue submits a command to the current engine. While signed out the
// returned channel resolves immediately with ErrNotSignedIn.
func (c *Controller) Enqueue(cmd engine.Command) <-chan error {
	eng := c.current()
	if eng == nil {
		done := make(chan error, 1)
		done <- ErrNotSignedIn
		return done
	}
	return eng.Enqueue(cmd)
}

// SetForeground records terminal visibility. The value is remembered so an
// engine created after the next sign-in starts at the right cadence.
func (c *Controller) SetForeground(fg bool) {
	c.mu.Lock()
	c.foreground = fg
	eng := c.eng
	c.mu.Unlock()

	if eng != nil {
		eng.SetForeground(fg)
	}
}

// RefreshNow asks the current engine for an immediate poll. Signed out it
// does nothing.
func (c *Controller) RefreshNow() {
	if eng := c.current(); eng != nil {
		eng.RefreshNow()
	}
}

// Notices returns the feed the UI drains. The feed outlives individual
// engines, so the channel stays valid across sign-in and sign-out.
func (c *Controller) Notices() <-chan engine.Notice {
	return c.feed.C()
}
