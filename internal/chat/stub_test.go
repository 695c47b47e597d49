package chat

import (
	"context"
	"sync"

	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/domain"
	"github.com/ttdigital/ttchat/internal/logging"
	"github.com/ttdigital/ttchat/internal/store"
	"github.com/ttdigital/ttchat/internal/transport"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// stubTransport is a scriptable transport.Client for engine tests.
type stubTransport struct {
	mu sync.Mutex

	history    *domain.HistoryResponse
	historyErr error

	sendResp map[string]any
	sendErr  error
	sendFn   func(req transport.SendRequest) (map[string]any, error)

	historyCalls []string
	sendCalls    []transport.SendRequest
}

func (s *stubTransport) LoadHistory(ctx context.Context, sessionID string) (*domain.HistoryResponse, error) {
	s.mu.Lock()
	s.historyCalls = append(s.historyCalls, sessionID)
	s.mu.Unlock()

	if s.historyErr != nil {
		return nil, s.historyErr
	}
	if s.history != nil {
		return s.history, nil
	}
	return &domain.HistoryResponse{}, nil
}

func (s *stubTransport) Send(ctx context.Context, req transport.SendRequest) (map[string]any, error) {
	s.mu.Lock()
	s.sendCalls = append(s.sendCalls, req)
	s.mu.Unlock()

	if s.sendFn != nil {
		return s.sendFn(req)
	}
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	if s.sendResp != nil {
		return s.sendResp, nil
	}
	return map[string]any{}, nil
}

func (s *stubTransport) sentRequests() []transport.SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.SendRequest(nil), s.sendCalls...)
}

func testChatConfig() config.ChatConfig {
	cfg := config.Defaults().Chat
	return cfg
}

// newTestClient builds an engine over a stub transport and memory store.
func newTestClient(cfg config.ChatConfig, stub *stubTransport, ss store.SessionStore) *Client {
	if ss == nil {
		ss = store.NewMemorySessionStore()
	}
	return New(cfg, stub, ss, testLogger())
}
