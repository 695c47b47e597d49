package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/domain"
	"github.com/ttdigital/ttchat/internal/store"
)

type chatConfigOption func(*config.ChatConfig)

func newTestSessionManager(opt chatConfigOption, stub *stubTransport, ss store.SessionStore) (*SessionManager, *State) {
	state := NewState()
	cfg := testChatConfig()
	if opt != nil {
		opt(&cfg)
	}
	if ss == nil {
		ss = store.NewMemorySessionStore()
	}
	return NewSessionManager(state, ss, stub, cfg, testLogger()), state
}

// --- StartNewSession ---

func TestStartNewSession(t *testing.T) {
	ss := store.NewMemorySessionStore()
	m, state := newTestSessionManager(nil, &stubTransport{}, ss)

	id := m.StartNewSession(context.Background())

	require.NotEmpty(t, id)
	assert.Equal(t, id, state.sessionID())

	persisted, err := ss.Load("default")
	require.NoError(t, err)
	assert.Equal(t, id, persisted)
	assert.Empty(t, state.Snapshot().Messages)
}

func TestStartNewSession_InitialMessages(t *testing.T) {
	m, state := newTestSessionManager(func(c *config.ChatConfig) {
		c.InitialMessages = []string{"Ciao!", "Come posso aiutarti?"}
	}, &stubTransport{}, nil)

	m.StartNewSession(context.Background())

	msgs := state.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "Ciao!", msgs[0].Text)
	assert.Equal(t, domain.SenderBot, msgs[0].Sender)
	assert.Equal(t, "Come posso aiutarti?", msgs[1].Text)
}

func TestStartNewSession_ClearsPendingCallback(t *testing.T) {
	m, state := newTestSessionManager(nil, &stubTransport{}, nil)

	state.setPendingCallback("stale")
	m.StartNewSession(context.Background())

	assert.Empty(t, state.pendingCallback())
}

func TestStartNewSession_FreshIDs(t *testing.T) {
	m, _ := newTestSessionManager(nil, &stubTransport{}, nil)

	first := m.StartNewSession(context.Background())
	second := m.StartNewSession(context.Background())
	assert.NotEqual(t, first, second)
}

// --- LoadPreviousSession ---

func TestLoadPreviousSession_Disabled(t *testing.T) {
	ss := store.NewMemorySessionStore()
	require.NoError(t, ss.Save("default", "stored-id"))

	disabled := false
	stub := &stubTransport{}
	m, state := newTestSessionManager(func(c *config.ChatConfig) {
		c.LoadPreviousSession = &disabled
	}, stub, ss)

	id := m.LoadPreviousSession(context.Background())

	assert.NotEqual(t, "stored-id", id)
	assert.Equal(t, id, state.sessionID())
	assert.Empty(t, stub.historyCalls)
}

func TestLoadPreviousSession_NoStoredID(t *testing.T) {
	stub := &stubTransport{}
	m, state := newTestSessionManager(nil, stub, nil)

	id := m.LoadPreviousSession(context.Background())

	require.NotEmpty(t, id)
	assert.Equal(t, id, state.sessionID())
	assert.Empty(t, stub.historyCalls, "no history call without a stored id")
}

func TestLoadPreviousSession_RestoresHistory(t *testing.T) {
	ss := store.NewMemorySessionStore()
	require.NoError(t, ss.Save("default", "stored-id"))

	stub := &stubTransport{history: historyResponse(t, `[
		{"id": ["langchain", "HumanMessageChunk"], "kwargs": {"content": "domanda"}},
		{"id": "AIMessage", "kwargs": {"content": "risposta"}}
	]`)}
	m, state := newTestSessionManager(nil, stub, ss)

	id := m.LoadPreviousSession(context.Background())

	assert.Equal(t, "stored-id", id)
	assert.Equal(t, []string{"stored-id"}, stub.historyCalls)

	msgs := state.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "domanda", msgs[0].Text)
	assert.Equal(t, domain.SenderUser, msgs[0].Sender)
	assert.Equal(t, "risposta", msgs[1].Text)
	assert.Equal(t, domain.SenderBot, msgs[1].Sender)
}

func TestLoadPreviousSession_ArrayContentBecomesMultipleMessages(t *testing.T) {
	ss := store.NewMemorySessionStore()
	require.NoError(t, ss.Save("default", "stored-id"))

	stub := &stubTransport{history: historyResponse(t, `[
		{"id": "AIMessage", "kwargs": {"content": ["prima", "", "seconda"]}}
	]`)}
	m, state := newTestSessionManager(nil, stub, ss)

	m.LoadPreviousSession(context.Background())

	msgs := state.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "prima", msgs[0].Text)
	assert.Equal(t, "seconda", msgs[1].Text)
	assert.Equal(t, domain.SenderBot, msgs[0].Sender)
}

func TestLoadPreviousSession_MalformedContentGetsSentinel(t *testing.T) {
	ss := store.NewMemorySessionStore()
	require.NoError(t, ss.Save("default", "stored-id"))

	stub := &stubTransport{history: historyResponse(t, `[
		{"id": "AIMessage", "kwargs": {"content": {"unexpected": true}}},
		{"id": "AIMessage", "kwargs": {"content": ""}}
	]`)}
	m, state := newTestSessionManager(nil, stub, ss)

	m.LoadPreviousSession(context.Background())

	msgs := state.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, emptyMessageText, msgs[0].Text)
	assert.Equal(t, emptyMessageText, msgs[1].Text)
}

func TestLoadPreviousSession_EmptyHistoryFallsBackToInitialMessages(t *testing.T) {
	ss := store.NewMemorySessionStore()
	require.NoError(t, ss.Save("default", "stored-id"))

	stub := &stubTransport{}
	m, state := newTestSessionManager(func(c *config.ChatConfig) {
		c.InitialMessages = []string{"Benvenuto!"}
	}, stub, ss)

	id := m.LoadPreviousSession(context.Background())

	assert.Equal(t, "stored-id", id)
	msgs := state.Snapshot().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "Benvenuto!", msgs[0].Text)
}

func TestLoadPreviousSession_TransportFailureStartsNewSession(t *testing.T) {
	ss := store.NewMemorySessionStore()
	require.NoError(t, ss.Save("default", "stored-id"))

	stub := &stubTransport{historyErr: errors.New("connection refused")}
	m, state := newTestSessionManager(nil, stub, ss)

	id := m.LoadPreviousSession(context.Background())

	require.NotEmpty(t, id)
	assert.NotEqual(t, "stored-id", id, "failed load supersedes the optimistic id")
	assert.Equal(t, id, state.sessionID())

	// the abandoned id is replaced in storage too
	persisted, err := ss.Load("default")
	require.NoError(t, err)
	assert.Equal(t, id, persisted)
}

// --- EnsureSessionID ---

func TestEnsureSessionID_ReturnsExisting(t *testing.T) {
	stub := &stubTransport{}
	m, state := newTestSessionManager(nil, stub, nil)

	state.setSessionID("already-set")

	id, err := m.EnsureSessionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "already-set", id)
	assert.Empty(t, stub.historyCalls)
}

func TestEnsureSessionID_ResolvesWhenMissing(t *testing.T) {
	m, state := newTestSessionManager(nil, &stubTransport{}, nil)

	id, err := m.EnsureSessionID(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, state.sessionID())
}

// --- sender classification ---

func TestClassifySender(t *testing.T) {
	tests := []struct {
		name string
		ids  domain.StringList
		want domain.Sender
	}{
		{"array with marker", domain.StringList{"AIMessage"}, domain.SenderBot},
		{"human chunk", domain.StringList{"HumanMessageChunk"}, domain.SenderUser},
		{"marker in any element", domain.StringList{"langchain", "schema", "HumanMessage"}, domain.SenderUser},
		{"case sensitive", domain.StringList{"humanmessage"}, domain.SenderBot},
		{"empty", nil, domain.SenderBot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySender(tt.ids))
		})
	}
}

func historyResponse(t *testing.T, data string) *domain.HistoryResponse {
	t.Helper()
	var resp domain.HistoryResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":`+data+`}`), &resp))
	return &resp
}
