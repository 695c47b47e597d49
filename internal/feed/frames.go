package feed

import "github.com/ttdigital/ttchat/internal/chat"

// Frame types exchanged over the feed socket.
const (
	FrameState       = "state"
	FrameError       = "error"
	FrameSendMessage = "sendMessage"
	FrameNewSession  = "newSession"
	FrameLoadSession = "loadSession"
)

// InboundFrame is a command sent by a connected presentation layer.
type InboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// StateFrame carries a full transcript snapshot to subscribers.
type StateFrame struct {
	Type  string        `json:"type"`
	State chat.Snapshot `json:"state"`
}

// ErrorFrame reports a rejected command back to the sender.
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newStateFrame(s chat.Snapshot) StateFrame {
	return StateFrame{Type: FrameState, State: s}
}

func newErrorFrame(err error) ErrorFrame {
	return ErrorFrame{Type: FrameError, Error: err.Error()}
}
