// Package chat holds the per-session support chat: the append-only
// message log fed by the live stream and the outbound send path.
package chat

import "sync"

// Sender classifies who a logged message came from.
type Sender string

const (
	// SenderLocal is a message typed by the current user.
	SenderLocal Sender = "local"
	// SenderRemote is a message delivered over the event stream.
	SenderRemote Sender = "remote"
	// SenderError marks a failed outbound send, rendered inline.
	SenderError Sender = "error"
)

// Message is one chat log entry.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Log is the ordered, append-only message sequence for one open chat
// session. It is cleared when the session closes, never persisted.
type Log struct {
	mu       sync.Mutex
	messages []Message
}

// NewLog constructs an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a message to the end of the log.
func (l *Log) Append(sender Sender, text string) {
	l.mu.Lock()
	l.messages = append(l.messages, Message{Sender: sender, Text: text})
	l.mu.Unlock()
}

// Messages returns a copy of the log in append order.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.messages...)
}

// Clear empties the log, for session close.
func (l *Log) Clear() {
	l.mu.Lock()
	l.messages = nil
	l.mu.Unlock()
}
