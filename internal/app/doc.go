// Package app provides the orchestration layer for the minedeck application.
//
// # Overview
//
// This package wires together configuration, logging, the session slot, the
// API client, the sync engine, and the UI to create the complete minedeck
// experience. It serves as the composition root where all dependencies are
// initialized and connected.
//
// # Architecture
//
// The app package follows a simple initialization pattern:
//
//  1. Load minedeck configuration from ~/.config/minedeck/config.toml
//  2. Open the log file under the data dir (the TUI owns stdout)
//  3. Open the session slot from <data_dir>/session.toml
//  4. Initialize the HTTP client for the Mineworks API, reading its bearer
//     token from the session slot per request
//  5. Start the Controller, which brings an engine up if a session exists
//  6. Resolve the theme (the -theme flag, else the persisted preference)
//  7. Start the TUI and block until the player quits or the context cancels
//
// # The Controller
//
// The Controller is the piece that binds the sync engine's lifetime to the
// session slot:
//
//	session stored   -> fresh engine: empty mirror, forced initial fetch
//	session cleared  -> engine cancelled and dropped
//	sign-in          -> probe the candidate token, persist the session,
//	                    which in turn starts the engine
//	auth failure     -> the engine clears the slot itself; the resulting
//	                    change notification tears the engine down
//
// Because session clearing can originate inside an engine goroutine (the
// server rejected our token mid-command), the Controller never waits for a
// stopped engine: it cancels the engine's context and lets it drain itself.
//
// The UI talks only to the Controller. Every proxied call handles the
// signed-out case: snapshots come back empty, commands resolve immediately
// with ErrNotSignedIn, refresh and visibility changes are dropped.
//
// # Error Handling
//
// Fatal errors (returned from Run): unreadable config, log file creation
// failure, session path resolution failure, malformed API URL. Everything
// after startup is recoverable by design: poll failures mark the mirror
// stale, command failures roll back, auth failures return the player to the
// sign-in screen.
package app
