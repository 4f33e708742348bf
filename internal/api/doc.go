// Package api provides an HTTP client for the Mineworks game API.
//
// # Overview
//
// This package defines the remote surface the sync engine runs against: one
// call that returns the full canonical snapshot of the player's world, and
// one call that submits a mutating action and returns the partial canonical
// update it produced. Everything else in the client (auth headers, request
// IDs, error decoding) exists to serve those two calls.
//
// # Architecture
//
// The package is split into two files:
//
//   - client.go: HTTP client, request plumbing, and server-rejection errors
//   - types.go: Wire structs mirroring the Mineworks API schema, plus the
//     pure pricing/capacity helpers derived from GameConfig
//
// # Endpoints
//
//   - GET  /v1/state:  full canonical snapshot (config, profile, player, machines)
//   - POST /v1/action: {"action": kind, "payload": {...}} → partial update
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Carry Authorization: Bearer <token> when a token source is configured
//   - Carry a fresh X-Request-ID (UUID) for log correlation
//   - Have a single client-owned timeout; callers perform no cancellation
//     or retry of their own
//
// # Error Handling
//
// Three failure families surface from the client:
//
//   - Transport errors: connection refused, timeouts, DNS failures. Wrapped
//     with fmt.Errorf("execute request: %w", err)
//   - Decoding errors: malformed JSON, wrapped as "decode response"
//   - Server rejections: non-2xx responses decoded into *Error, whose
//     Error() is the server's own message text
//
// Server rejections deliberately preserve the server's phrasing: the sync
// engine recognizes expired or invalid sessions by matching on that text,
// since the API guarantees no structured error codes.
//
// # Partial Updates
//
// ActionResult fields are pointers/nil-able slices so that "absent" and
// "present but empty" stay distinguishable after JSON decoding. The engine
// merges only fields that are present; absent fields keep their optimistic
// or prior values.
//
// # Thread Safety
//
// The Client is safe for concurrent use. The token source is consulted per
// request, so a session change takes effect without rebuilding the client.
package api
