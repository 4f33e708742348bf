package engine

import (
	"context"
	"time"
)

// pollLoop refreshes the mirror at the current cadence until ctx is
// cancelled. A fresh timer per iteration keeps the interval honest across
// foreground/background flips and manual refreshes.
func (e *Engine) pollLoop(ctx context.Context) {
	for {
		timer := time.NewTimer(e.interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-e.pollNow:
			timer.Stop()
			e.poll(ctx, false)
		case <-e.rearm:
			timer.Stop()
		case <-timer.C:
			e.poll(ctx, false)
		}
	}
}

func (e *Engine) interval() time.Duration {
	if e.foreground.Load() {
		return e.pollForeground
	}
	return e.pollBackground
}

// SetForeground records terminal visibility. Both flips re-arm the timer at
// the new cadence immediately; coming back to the foreground additionally
// triggers one poll so the player isn't staring at minutes-old state.
func (e *Engine) SetForeground(fg bool) {
	if e.foreground.Swap(fg) == fg {
		return
	}
	if fg {
		e.requestPoll()
		return
	}
	select {
	case e.rearm <- struct{}{}:
	default:
	}
}

// RefreshNow requests one immediate poll. The usual skip rules apply.
func (e *Engine) RefreshNow() {
	e.requestPoll()
}

func (e *Engine) requestPoll() {
	select {
	case e.pollNow <- struct{}{}:
	default:
	}
}

// poll fetches the full state and merges it, unless a mutation or another
// fetch is already in flight. force bypasses only the mutation skip and is
// used for the initial load; two concurrent fetches are never useful.
//
// A successful fetch merges only if the mutation sequence number still
// matches its value from before the fetch, checked under the store's write
// lock. A command that started mid-flight makes the fetched snapshot stale:
// it predates the command the player already saw applied.
func (e *Engine) poll(ctx context.Context, force bool) {
	if !force && e.mutating.Load() {
		e.log.Debug().Msg("poll skipped: command in flight")
		return
	}
	if !e.fetching.CompareAndSwap(false, true) {
		e.log.Debug().Msg("poll skipped: fetch already in flight")
		return
	}
	defer e.fetching.Store(false)

	seqAtStart := e.seq.Load()
	snap, err := e.client.FetchState(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if e.handleAuthFailure(err) {
			return
		}
		e.store.RecordSyncFailure(err)
		e.log.Warn().Err(err).Msg("state poll failed")
		e.notifier.Publish(Notice{
			Title:       "Sync failed",
			Description: err.Error(),
			Severity:    SeverityWarning,
			At:          e.now(),
		})
		return
	}

	merged := e.store.MergeState(snap, func() bool {
		return e.seq.Load() == seqAtStart
	})
	if !merged {
		e.log.Debug().Uint64("seq_at_start", seqAtStart).Msg("discarded stale poll result")
	}
}
