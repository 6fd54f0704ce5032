package eventing

import "time"

// AlertRaised is published when the stream router accepts an
// alert-class frame for the bound identity.
type AlertRaised struct {
	Identity   string
	Message    string
	OccurredAt time.Time
}

// ChatMessageReceived is published when a chat-class frame arrives on
// the bound identity's stream.
type ChatMessageReceived struct {
	Identity   string
	Message    string
	OccurredAt time.Time
}

// SessionStateChanged is published when a session connection changes
// lifecycle state (open or closed).
type SessionStateChanged struct {
	Identity   string
	State      string
	OccurredAt time.Time
}
