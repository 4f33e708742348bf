// Package engine implements minedeck's optimistic state synchronization:
// a local mirror of the remote Mineworks simulation that feels instantaneous
// to the player while the server remains fully authoritative.
//
// # Overview
//
// The server owns the simulation: mining accrual, pricing, settlement. The
// client owns responsiveness. This package bridges the two with a small set
// of cooperating pieces:
//
//   - Store: the mirrored world state behind an RWMutex
//   - command queue: a buffered channel with a single consumer goroutine
//   - sequence number: one atomic counter versioning local mutations
//   - speculators: per-kind optimistic deltas with exact undo closures
//   - poller: visibility-aware full-state refresh
//   - auth detection: turns "session expired" style rejections into sign-out
//
// # Data Flow
//
//	         UI key press                    background cadence
//	              │                                  │
//	       Enqueue(Command)                          │
//	              ↓                                  ↓
//	    ┌─────────────────────┐            ┌──────────────────┐
//	    │  worker (1 goroutine)│            │     poller       │
//	    │  seq++               │            │ seqAtStart := seq│
//	    │  speculate → undo    │            │ FetchState()     │
//	    │  InvokeAction()      │            │ merge iff seq ==  │
//	    │  merge | undo        │            │   seqAtStart     │
//	    └─────────┬───────────┘            └────────┬─────────┘
//	              ↓                                  ↓
//	                        Store (RWMutex)
//	                              ↓
//	                     Snapshot() → UI render
//
// # Optimistic Lifecycle
//
// Each command moves through: queued → optimistically applied → awaiting
// server → reconciled or rolled back. There is no cancelled state; once
// dequeued, a command always reaches a terminal state and resolves the
// channel its caller got from Enqueue.
//
// On success the server returns a partial result (player state and/or
// machine list); only the returned parts replace the mirror, everything else
// keeps its current - possibly optimistic - value. On failure the undo
// closure captured at speculation time restores exactly the entities the
// delta touched, then the error is surfaced as a notice (or routed to auth
// handling, which supersedes it).
//
// # Why One Worker
//
// The queue deliberately has a single consumer. With one command fully
// settling before the next starts, "at most one optimistic, unreconciled
// command" is structural: rollback never has to untangle interleaved deltas,
// and undo closures can capture absolute prior values instead of diffs.
// Throughput is bounded by the server round-trip anyway.
//
// # Poll Staleness
//
// A poll snapshot is only valid for the mutation sequence number it was
// fetched under. The poller records the counter before calling the server
// and MergeState re-checks it under the store's write lock; if a command
// advanced the counter mid-flight the snapshot is discarded. The next poll
// delivers a fresher one. Without this, a slow fetch could overwrite the
// speculative delta the player just watched apply.
//
// Polls are also skipped outright while a command is mutating or another
// fetch is still in flight; the initial load forces past the mutation skip.
//
// # Auth Failures
//
// The server reports session rejection in prose, not codes. IsAuthFailure
// matches the known phrases case-insensitively anywhere in the error text,
// so wrapped errors still trip it. The first detection per engine lifetime
// publishes a warning notice, empties the mirror, and clears the session
// slot; the app layer reacts to the slot change by returning to sign-in.
// Every detection, first or not, suppresses the generic failure notice.
//
// # Relation to the Server
//
// The engine performs no retries, no request cancellation, and no conflict
// resolution beyond last-reconciled-wins: a failed command rolls back and it
// is the player's choice to try again. Timeouts belong to the API client.
//
// # Testing
//
// Engine behavior is tested against a scripted StateClient fake; no network.
// The now hook pins timestamps where tests need them.
package engine
