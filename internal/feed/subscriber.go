package feed

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrSubscriberClosed = errors.New("subscriber connection closed")

// subscriber is one connected feed socket.
type subscriber struct {
	id          string
	socket      *websocket.Conn
	connectedAt time.Time

	mu     sync.Mutex
	closed bool
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{
		id:          uuid.New().String(),
		socket:      conn,
		connectedAt: time.Now(),
	}
}

// send writes a frame to the socket. Thread-safe.
func (s *subscriber) send(frame any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	return s.socket.WriteJSON(frame)
}

func (s *subscriber) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.socket.Close()
}
