// Package auth owns the authentication and session lifecycle of the
// file-vault admin dashboard: which screen to mount, how a session is
// restored across restarts, how credentials become a bearer token, and how
// backend failures map onto user-facing recovery paths.
//
// Session lifecycle:
//   - Manager is the single source of truth for AuthState and the current
//     Session. Construct it over a Gateway and a CredentialStore, call
//     Restore once at startup, and read State/Session/IsAuthenticated from
//     the UI. Restore shares a single in-flight round trip between
//     concurrent callers.
//   - The state machine has three phases (initializing, unauthenticated,
//     authenticated) plus an entry-screen sub-mode; SelectScreen turns a
//     state snapshot and the current URL path into a screen identifier.
//
// Error tiers:
//   - Local validation failures (empty credentials, short or mismatched
//     passwords) are raised before any network call and carry
//     TextCodeValidation; render them inline.
//   - Remote failures run through Classify exactly once, producing one of a
//     fixed taxonomy with a suggested Recovery. String matching happens only
//     there, so the taxonomy has one authoritative definition.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter invoked at every state
//     entry/exit and around every gateway round trip. Sinks run best-effort
//     (errors are logged) so you can forward to telemetry without blocking
//     the login flow.
package auth
