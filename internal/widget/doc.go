// Package widget implements the embeddable chat widget's session and
// message engine.
//
// # Overview
//
// An Instance owns one embed: the immutable WidgetConfig plus the mutable
// SessionState, with every collaborator injected (backend client, identity
// store, analytics sink). There are no ambient globals; a host embeds the
// widget by constructing an Instance and wiring a render adapter to its
// delta stream.
//
// # Lifecycle
//
// The session manager moves through
//
//	Uninitialized → (GuestGatePending | SessionInitializing) → SessionActive
//
// Bootstrap resolves the guest gate (silent restore of a persisted guest
// session, validated against the backend) and arms the one-shot auto-open
// timer. Open triggers session init; init success triggers a wholesale
// history hydration before any user message can be sent. RegisterGuest
// validates locally, registers with the backend, and persists the returned
// guest session id.
//
// # Failure policy
//
// The widget runs as an unprivileged guest inside someone else's page, so
// no failure may escape the engine: every backend error is caught at the
// call site, logged, and converted to one of three fixed user-visible
// fallback lines (send failure, init failure, registration failure) or
// silently absorbed (analytics, hydration).
//
// # Rendering
//
// State changes are published as ordered Delta values via Subscribe. The
// engine guarantees the typing indicator is cleared before the assistant
// reply (or fallback) is appended, and that the unread count resets
// exactly on the transition to open.
package widget
