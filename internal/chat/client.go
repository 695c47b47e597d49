package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/domain"
	"github.com/ttdigital/ttchat/internal/logging"
	"github.com/ttdigital/ttchat/internal/store"
	"github.com/ttdigital/ttchat/internal/transport"
)

// Client is the orchestration engine exposed to presentation layers.
// It composes the session manager, message processor, and transport into
// the send pipeline, and enforces one in-flight send at a time.
type Client struct {
	cfg       config.ChatConfig
	state     *State
	sessions  *SessionManager
	processor *MessageProcessor
	transport transport.Client
	log       *logging.Logger

	sendMu sync.Mutex // single-flight guard for SendMessage
}

// New creates the chat engine from its collaborators.
func New(cfg config.ChatConfig, tc transport.Client, ss store.SessionStore, log *logging.Logger) *Client {
	state := NewState()
	return &Client{
		cfg:       cfg,
		state:     state,
		sessions:  NewSessionManager(state, ss, tc, cfg, log),
		processor: NewMessageProcessor(state, log),
		transport: tc,
		log:       log.Sub("chat"),
	}
}

// Snapshot returns the current observable state.
func (c *Client) Snapshot() Snapshot {
	return c.state.Snapshot()
}

// OnChange registers an observer notified after every state mutation.
func (c *Client) OnChange(fn func(Snapshot)) {
	c.state.OnChange(fn)
}

// StartNewSession resets to a fresh session and returns its id.
func (c *Client) StartNewSession(ctx context.Context) string {
	return c.sessions.StartNewSession(ctx)
}

// LoadPreviousSession restores the persisted session, falling back to a
// fresh one, and returns the active id.
func (c *Client) LoadPreviousSession(ctx context.Context) string {
	return c.sessions.LoadPreviousSession(ctx)
}

// SendMessage runs one outgoing message transaction end-to-end.
//
// The pending callback value is read once at entry and cleared only after
// a transmission that consumed it succeeds; a failed transmission leaves
// it intact so the next attempt still carries it. A call with no text, no
// files, no privacy answer, and no pending callback is a complete no-op:
// the transport is not contacted and no state changes.
//
// Transport failures surface as a transcript error message and a nil
// return; only a session-resolution failure or a concurrent in-flight
// send produce an error.
func (c *Client) SendMessage(ctx context.Context, text string, files []domain.Attachment, privacy *bool) error {
	trimmed := strings.TrimSpace(text)
	callback := c.state.pendingCallback()

	if trimmed == "" && len(files) == 0 && privacy == nil && callback == "" {
		c.log.Debug().Msg("nothing to send")
		return nil
	}

	if !c.sendMu.TryLock() {
		return ErrSendInFlight
	}
	defer c.sendMu.Unlock()

	sessionID, err := c.sessions.EnsureSessionID(ctx)
	if err != nil {
		return err
	}

	c.processor.AddUserMessage(trimmed, files)

	c.state.setWaiting(true)
	defer c.state.setWaiting(false)

	resp, err := c.transport.Send(ctx, transport.SendRequest{
		Text:          trimmed,
		Files:         files,
		SessionID:     sessionID,
		Privacy:       privacy,
		CallbackValue: callback,
	})
	if err != nil {
		// Sticky retry: the pending callback survives a failed transmission.
		c.log.Error().Err(err).Str("sessionId", sessionID).Msg("message send failed")
		c.processor.AddErrorMessage(c.cfg.ErrorMessage)
		return nil
	}

	if callback != "" {
		c.state.setPendingCallback("")
	}

	texts := c.processor.ExtractResponseTexts(resp)
	actions := c.processor.DecodeActions(resp)
	c.processor.AddBotMessages(texts, actions)

	return nil
}
