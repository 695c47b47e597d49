// Package chat implements the session/message orchestration engine behind
// the widget: session identity, transcript mutation, response normalization,
// and the send pipeline against a single remote webhook.
package chat

import (
	"sync"

	"github.com/ttdigital/ttchat/internal/domain"
)

// Snapshot is an immutable view of the observable widget state, consumed
// by presentation layers (REPL, WebSocket feed).
type Snapshot struct {
	Messages             []domain.ChatMessage `json:"messages"`
	CurrentSessionID     string               `json:"currentSessionId"`
	WaitingForResponse   bool                 `json:"waitingForResponse"`
	PendingCallbackValue string               `json:"pendingCallbackValue,omitempty"`
}

// State holds the shared observable session state. The transcript is
// append-only; messages are never reordered or mutated after insertion.
type State struct {
	mu                   sync.Mutex
	messages             []domain.ChatMessage
	currentSessionID     string
	waitingForResponse   bool
	pendingCallbackValue string
	observers            []func(Snapshot)
}

// NewState creates empty widget state.
func NewState() *State {
	return &State{}
}

// OnChange registers an observer invoked after every state mutation.
// Observers run outside the state lock and receive a copy.
func (s *State) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	msgs := make([]domain.ChatMessage, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		Messages:             msgs,
		CurrentSessionID:     s.currentSessionID,
		WaitingForResponse:   s.waitingForResponse,
		PendingCallbackValue: s.pendingCallbackValue,
	}
}

func (s *State) appendMessages(msgs ...domain.ChatMessage) {
	if len(msgs) == 0 {
		return
	}
	s.mu.Lock()
	s.messages = append(s.messages, msgs...)
	s.notifyLocked()
}

func (s *State) replaceMessages(msgs []domain.ChatMessage) {
	s.mu.Lock()
	s.messages = msgs
	s.notifyLocked()
}

func (s *State) sessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSessionID
}

func (s *State) setSessionID(id string) {
	s.mu.Lock()
	s.currentSessionID = id
	s.notifyLocked()
}

func (s *State) setWaiting(waiting bool) {
	s.mu.Lock()
	s.waitingForResponse = waiting
	s.notifyLocked()
}

func (s *State) pendingCallback() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingCallbackValue
}

func (s *State) setPendingCallback(value string) {
	s.mu.Lock()
	s.pendingCallbackValue = value
	s.notifyLocked()
}

// notifyLocked releases the lock and invokes the observers, if any.
// Callers must hold s.mu; it is unlocked on return.
func (s *State) notifyLocked() {
	observers := s.observers
	var snap Snapshot
	if len(observers) > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}
