// Package classify splits one multiplexed event stream into logical
// channels. The backend emits either a tagged JSON envelope or, on
// degraded paths, bare text; both must be handled without crashing
// the router.
package classify

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Channel is a logical partition of the event stream.
type Channel string

const (
	ChannelAlert   Channel = "alert"
	ChannelChat    Channel = "chat"
	ChannelUnknown Channel = "unknown"
)

// EventFrame is the classified form of one inbound frame.
type EventFrame struct {
	Channel Channel
	Message string
	Raw     []byte
}

// envelope is the tagged wire form. Message is a pointer so that an
// absent field is distinguishable from an empty string.
type envelope struct {
	Type    string  `json:"type"`
	Message *string `json:"message"`
}

const chatType = "chat"

// Classify decides which channel a raw frame belongs to. It is a pure
// function: the same input always yields the same frame.
//
// Structured decode is attempted first. On decode failure the raw
// text is surfaced as a plain alert only when it carries no JSON
// delimiters, so a partially received or corrupted envelope is never
// shown to a human.
func Classify(raw []byte) EventFrame {
	frame := EventFrame{Channel: ChannelUnknown, Raw: raw}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Type == chatType {
			frame.Channel = ChannelChat
			if env.Message != nil {
				frame.Message = *env.Message
			}
			return frame
		}
		if env.Message != nil {
			frame.Channel = ChannelAlert
			frame.Message = *env.Message
		}
		return frame
	}

	text := string(raw)
	if !utf8.ValidString(text) {
		return frame
	}
	if strings.ContainsAny(text, "{}") {
		return frame
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return frame
	}
	frame.Channel = ChannelAlert
	frame.Message = text
	return frame
}
