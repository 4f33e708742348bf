// Package ui provides the terminal user interface for minedeck.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program following the Elm architecture: a single
// Model, an Update function that folds messages into it, and a View function
// that renders it. All game state lives in the engine's mirror; the UI holds
// only presentation state (cursor position, active screen, toast buffer) and
// re-reads a fresh snapshot once per tick.
//
// # Package Structure
//
//   - app.go: root Model, message plumbing, and the Run function
//   - signin.go: token entry screen and the async sign-in probe
//   - dashboard.go: machine table, status header, command dispatch
//   - help.go: keyboard shortcut overlay
//   - theme.go: color palettes and pre-built lipgloss styles
//   - style_helpers.go: background-safe segment rendering
//   - format.go: quantity and timestamp formatting
//
// # Screens
//
// Two screens exist. The sign-in screen collects a session token and
// validates it against the API before persisting it. The dashboard shows the
// player's balances, the machine table, mineral holdings, and recent notices,
// and dispatches action commands to the engine's queue.
//
// # Event Flow
//
//  1. Run() builds the Model and starts the Bubble Tea program.
//  2. A once-per-second tick re-reads the engine snapshot and expires toasts.
//  3. Key presses enqueue commands; outcomes arrive later on the notice feed.
//  4. Terminal focus and blur switch the engine between poll cadences.
//  5. When the session ends, the next tick bounces back to sign-in.
//
// The UI never blocks on the network: enqueues return immediately and the
// command's outcome surfaces as a toast when its notice arrives. Optimistic
// state changes appear on the very next tick because the engine applies them
// to the mirror before the server answers.
//
// # The Controller
//
// The Model talks to the rest of the application through the Controller
// interface, implemented by the app layer. Tests substitute a fake.
package ui
