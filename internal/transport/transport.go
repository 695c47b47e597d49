// Package transport implements the webhook wire protocol: history retrieval
// and message sending against a single remote endpoint.
package transport

import (
	"context"

	"github.com/ttdigital/ttchat/internal/domain"
)

// SendRequest carries one outgoing message transaction.
type SendRequest struct {
	Text          string
	Files         []domain.Attachment
	SessionID     string
	Privacy       *bool  // included in the payload only when set
	CallbackValue string // included in the payload only when non-empty
}

// Client is the transport boundary the chat engine depends on.
type Client interface {
	// LoadHistory requests the persisted transcript for a session.
	LoadHistory(ctx context.Context, sessionID string) (*domain.HistoryResponse, error)

	// Send transmits a message and returns the decoded response body.
	// The body stays a generic map because servers answer with several
	// shapes; the engine normalizes it.
	Send(ctx context.Context, req SendRequest) (map[string]any, error)
}
