package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jericomadamdamin-ctrl/final-m2e-sub001/internal/api"
)

// ErrQueueFull means the command queue's bounded buffer is at capacity. The
// command was not accepted; nothing was applied locally.
var ErrQueueFull = errors.New("command queue is full")

// ErrShuttingDown resolves commands that were still queued when the engine
// stopped. They never ran.
var ErrShuttingDown = errors.New("engine shutting down")

// SessionClearer is the one session operation the engine performs: wiping
// the stored credentials after the server rejects them.
type SessionClearer interface {
	Clear() error
}

// Options configures a new Engine. Client is required; everything else has
// a usable default.
type Options struct {
	Client         api.StateClient
	Sessions       SessionClearer
	Notifier       Notifier
	Log            zerolog.Logger
	PollForeground time.Duration
	PollBackground time.Duration
	QueueSize      int
}

const (
	defaultPollForeground = 15 * time.Second
	defaultPollBackground = 2 * time.Minute
	defaultQueueSize      = 16
)

// Engine keeps a local mirror of the server's state that feels instantaneous:
// player commands apply speculative deltas immediately, go to the server
// strictly one at a time, and are reconciled against its partial responses or
// rolled back exactly; a background poller refreshes the full mirror on a
// visibility-aware cadence. One Engine serves one session; sign-out discards
// it, mirror and all.
type Engine struct {
	client   api.StateClient
	sessions SessionClearer
	notifier Notifier
	log      zerolog.Logger
	store    *Store

	pollForeground time.Duration
	pollBackground time.Duration

	// seq is the mutation sequence number: bumped exactly once per command,
	// before its speculative delta. Poll merges are discarded when it moved
	// between fetch start and merge. It never orders the queue.
	seq atomic.Uint64

	fetching    atomic.Bool
	mutating    atomic.Bool
	foreground  atomic.Bool
	authTripped atomic.Bool

	qmu     sync.Mutex
	queue   chan queuedCommand
	stopped bool

	pollNow chan struct{}
	rearm   chan struct{}

	now func() time.Time
}

type queuedCommand struct {
	cmd  Command
	done chan error
}

// New builds an Engine around a fresh, empty mirror.
func New(opts Options) *Engine {
	if opts.PollForeground <= 0 {
		opts.PollForeground = defaultPollForeground
	}
	if opts.PollBackground <= 0 {
		opts.PollBackground = defaultPollBackground
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	e := &Engine{
		client:         opts.Client,
		sessions:       opts.Sessions,
		notifier:       opts.Notifier,
		log:            opts.Log.With().Str("component", "engine").Logger(),
		store:          NewStore(),
		pollForeground: opts.PollForeground,
		pollBackground: opts.PollBackground,
		queue:          make(chan queuedCommand, opts.QueueSize),
		pollNow:        make(chan struct{}, 1),
		rearm:          make(chan struct{}, 1),
		now:            time.Now,
	}
	e.foreground.Store(true)
	return e
}

// Run performs the initial forced load, then serves the command queue and
// the polling loop until ctx is cancelled. Commands still queued at shutdown
// resolve with ErrShuttingDown.
func (e *Engine) Run(ctx context.Context) {
	e.poll(ctx, true)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.worker(ctx)
	}()
	go func() {
		defer wg.Done()
		e.pollLoop(ctx)
	}()
	wg.Wait()
}

// Snapshot returns a deep copy of the current mirror.
func (e *Engine) Snapshot() Snapshot {
	return e.store.Snapshot()
}

// Enqueue submits a command and returns a channel that always resolves with
// its terminal outcome: nil on reconciliation, the server/transport error on
// rollback, ErrQueueFull when the buffer is at capacity, or ErrShuttingDown
// when the engine stopped first. It never blocks.
func (e *Engine) Enqueue(cmd Command) <-chan error {
	done := make(chan error, 1)

	e.qmu.Lock()
	if e.stopped {
		e.qmu.Unlock()
		done <- ErrShuttingDown
		return done
	}
	select {
	case e.queue <- queuedCommand{cmd: cmd, done: done}:
		e.qmu.Unlock()
	default:
		e.qmu.Unlock()
		done <- ErrQueueFull
	}
	return done
}

// worker is the queue's single consumer. One command fully settles, rollback
// included, before the next is received; "at most one optimistic command in
// flight" holds by construction rather than by locking.
func (e *Engine) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.drainQueue()
			return
		case q := <-e.queue:
			if ctx.Err() != nil {
				q.done <- ErrShuttingDown
				continue
			}
			q.done <- e.runCommand(ctx, q.cmd)
		}
	}
}

// drainQueue marks the queue closed for business and resolves everything
// still buffered. After stopped is set no new sends can race in: Enqueue
// checks the flag under the same mutex it sends under.
func (e *Engine) drainQueue() {
	e.qmu.Lock()
	e.stopped = true
	e.qmu.Unlock()

	for {
		select {
		case q := <-e.queue:
			q.done <- ErrShuttingDown
		default:
			return
		}
	}
}

// runCommand walks one command through its whole lifecycle: speculative
// delta, server call, then partial merge on success or exact rollback on
// failure. The mutating flag keeps polls away for the duration.
func (e *Engine) runCommand(ctx context.Context, cmd Command) error {
	e.mutating.Store(true)
	defer e.mutating.Store(false)

	seq := e.seq.Add(1)
	logger := e.log.With().Str("kind", string(cmd.Kind)).Uint64("seq", seq).Logger()

	var undo func(*World)
	if speculate := speculators[cmd.Kind]; speculate != nil {
		now := e.now()
		e.store.Write(func(w *World) {
			undo = speculate(w, cmd, now)
		})
	}

	res, err := e.client.InvokeAction(ctx, string(cmd.Kind), cmd.payload())
	if err != nil {
		if undo != nil {
			e.store.Write(undo)
		}
		if ctx.Err() != nil {
			return err
		}
		if e.handleAuthFailure(err) {
			return err
		}
		logger.Warn().Err(err).Msg("command failed")
		e.notifier.Publish(failureNotice(cmd, err, e.now()))
		return err
	}

	e.store.MergeActionResult(res)
	logger.Debug().Msg("command reconciled")
	e.notifier.Publish(successNotice(cmd, e.now()))
	return nil
}

// handleAuthFailure reacts to the server rejecting our session: exactly once
// per engine lifetime it publishes a signed-out notice, empties the mirror,
// and clears the stored session (the app layer navigates to sign-in off that
// change). It reports true for any auth failure, first or not, so callers
// suppress their generic failure handling.
func (e *Engine) handleAuthFailure(err error) bool {
	if !IsAuthFailure(err) {
		return false
	}
	if !e.authTripped.CompareAndSwap(false, true) {
		return true
	}
	e.log.Warn().Err(err).Msg("session rejected by server; signing out")
	e.notifier.Publish(Notice{
		Title:       "Signed out",
		Description: "Your session is no longer valid. Sign in again.",
		Severity:    SeverityWarning,
		At:          e.now(),
	})
	e.store.Reset()
	if e.sessions != nil {
		if cerr := e.sessions.Clear(); cerr != nil {
			e.log.Error().Err(cerr).Msg("failed to clear session")
		}
	}
	return true
}
