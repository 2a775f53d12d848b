// ABOUTME: State types for a widget instance: phases, transcript, render deltas
// ABOUTME: SessionState is the single mutable value a widget owns for its lifetime

package widget

import "time"

// Phase is the session manager's position in its lifecycle
type Phase string

// Session manager phases. GuestGatePending is only reachable when the
// config requires guest info and no valid persisted guest session exists.
const (
	PhaseUninitialized    Phase = "uninitialized"
	PhaseGuestGatePending Phase = "guest_gate_pending"
	PhaseInitializing     Phase = "session_initializing"
	PhaseActive           Phase = "session_active"
)

// Role identifies who authored a transcript message
type Role string

// Message roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. The transcript is append-only during a
// session and replaced wholesale when history is hydrated from the backend.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// SessionState is the mutable state of one widget instance. It is owned by
// the Instance and only ever copied out via Snapshot.
type SessionState struct {
	Phase             Phase
	SessionID         string // empty until init succeeds
	GuestSessionID    string // empty unless a guest session exists
	IsOpen            bool
	IsTyping          bool
	IsGuestRegistered bool
	UnreadCount       int
	Messages          []Message
}

// DeltaKind names a render delta
type DeltaKind string

// Render deltas emitted by the engine. A render adapter applies these in
// order; it never reaches into SessionState concurrently with the engine.
const (
	DeltaOpened             DeltaKind = "opened"
	DeltaClosed             DeltaKind = "closed"
	DeltaGuestGateShown     DeltaKind = "guest_gate_shown"
	DeltaGuestRegistered    DeltaKind = "guest_registered"
	DeltaSessionReady       DeltaKind = "session_ready"
	DeltaMessageAppended    DeltaKind = "message_appended"
	DeltaTranscriptReplaced DeltaKind = "transcript_replaced"
	DeltaTypingChanged      DeltaKind = "typing_changed"
	DeltaUnreadChanged      DeltaKind = "unread_changed"
)

// Delta describes one state change for the render adapter. Only the fields
// relevant to the Kind are set.
type Delta struct {
	Kind     DeltaKind
	Message  *Message  // message_appended
	Messages []Message // transcript_replaced
	Typing   bool      // typing_changed
	Unread   int       // unread_changed
	Text     string    // guest_registered: personalized welcome line
}
