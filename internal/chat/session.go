package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/domain"
	"github.com/ttdigital/ttchat/internal/logging"
	"github.com/ttdigital/ttchat/internal/store"
	"github.com/ttdigital/ttchat/internal/transport"
)

// humanMarker is the substring that identifies human-authored history
// records. The match is case-sensitive and applies to any ID element
// ("HumanMessage", "HumanMessageChunk", ...).
const humanMarker = "HumanMessage"

// emptyMessageText replaces history content the server returned in an
// unusable shape, so malformed records stay visible instead of vanishing.
const emptyMessageText = "Messaggio vuoto"

// SessionManager owns session identity and transcript restoration.
type SessionManager struct {
	state  *State
	store  store.SessionStore
	client transport.Client
	cfg    config.ChatConfig
	log    *logging.Logger
}

// NewSessionManager creates a session manager over shared state.
func NewSessionManager(state *State, ss store.SessionStore, tc transport.Client, cfg config.ChatConfig, log *logging.Logger) *SessionManager {
	return &SessionManager{
		state:  state,
		store:  ss,
		client: tc,
		cfg:    cfg,
		log:    log.Sub("session"),
	}
}

// StartNewSession generates a fresh session id, persists it, and resets the
// transcript to the configured initial messages. It never fails: persistence
// errors are logged and the in-memory session proceeds regardless.
func (m *SessionManager) StartNewSession(ctx context.Context) string {
	id := uuid.New().String()
	m.state.setSessionID(id)
	m.state.setPendingCallback("")

	if err := m.store.Save(m.cfg.Scope, id); err != nil {
		m.log.Warn().Err(err).Str("scope", m.cfg.Scope).Msg("failed to persist session id")
	}

	m.state.replaceMessages(m.initialMessages())

	m.log.Info().Str("sessionId", id).Msg("new session started")
	return id
}

// LoadPreviousSession restores the persisted session and its transcript.
// Absent or unrecoverable history falls back to StartNewSession; a stored
// id that fails to load is abandoned, never retried.
func (m *SessionManager) LoadPreviousSession(ctx context.Context) string {
	if !m.cfg.LoadPreviousEnabled() {
		return m.StartNewSession(ctx)
	}

	stored, err := m.store.Load(m.cfg.Scope)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to read persisted session id")
		return m.StartNewSession(ctx)
	}
	if stored == "" {
		m.log.Debug().Msg("no persisted session id, starting fresh")
		return m.StartNewSession(ctx)
	}

	// Optimistic: assign before the history call resolves, so a concurrent
	// send addresses the right session. A failed load supersedes this id
	// via StartNewSession below.
	m.state.setSessionID(stored)

	resp, err := m.client.LoadHistory(ctx, stored)
	if err != nil {
		m.log.Error().Err(err).Str("sessionId", stored).Msg("history load failed, abandoning session")
		return m.StartNewSession(ctx)
	}

	loaded := m.historyToMessages(resp)
	if len(loaded) == 0 {
		loaded = m.initialMessages()
	}
	m.state.replaceMessages(loaded)

	m.log.Info().Str("sessionId", stored).Int("messages", len(loaded)).Msg("previous session restored")
	return stored
}

// EnsureSessionID returns the current session id, resolving one first if
// needed. An empty result is a fatal precondition violation for the caller.
func (m *SessionManager) EnsureSessionID(ctx context.Context) (string, error) {
	if id := m.state.sessionID(); id != "" {
		return id, nil
	}

	var id string
	if m.cfg.LoadPreviousEnabled() {
		id = m.LoadPreviousSession(ctx)
	} else {
		id = m.StartNewSession(ctx)
	}
	if id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// initialMessages materializes the configured greeting texts as bot messages.
func (m *SessionManager) initialMessages() []domain.ChatMessage {
	if len(m.cfg.InitialMessages) == 0 {
		return nil
	}
	msgs := make([]domain.ChatMessage, 0, len(m.cfg.InitialMessages))
	for _, text := range m.cfg.InitialMessages {
		msgs = append(msgs, newMessage(domain.SenderBot, text))
	}
	return msgs
}

// historyToMessages normalizes webhook history records into transcript
// messages, preserving record order.
func (m *SessionManager) historyToMessages(resp *domain.HistoryResponse) []domain.ChatMessage {
	if resp == nil {
		return nil
	}

	timestamp := time.Now()
	var msgs []domain.ChatMessage
	for _, rec := range resp.Data {
		sender := classifySender(rec.ID)
		for _, text := range normalizeContent(rec.Kwargs.Content) {
			msgs = append(msgs, domain.ChatMessage{
				ID:        uuid.New().String(),
				Text:      text,
				Sender:    sender,
				CreatedAt: timestamp,
			})
		}
	}
	return msgs
}

// classifySender maps a record's ID field to a transcript sender. Any ID
// element containing the human marker classifies the record as user-sent.
func classifySender(ids domain.StringList) domain.Sender {
	for _, id := range ids {
		if strings.Contains(id, humanMarker) {
			return domain.SenderUser
		}
	}
	return domain.SenderBot
}

// normalizeContent turns a raw kwargs.content payload into display texts.
// A string yields one text, an array yields its non-blank string elements,
// and anything else yields the empty-message sentinel.
func normalizeContent(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{emptyMessageText}
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return []string{emptyMessageText}
		}
		if strings.TrimSpace(single) == "" {
			return nil
		}
		return []string{single}
	}

	var many []any
	if err := json.Unmarshal(raw, &many); err == nil {
		var texts []string
		for _, v := range many {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				texts = append(texts, s)
			}
		}
		return texts
	}

	return []string{emptyMessageText}
}
