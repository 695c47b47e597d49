package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// SessionStore persists the active session id per storage scope.
// One scope holds at most one session id; embedding hosts that run several
// widget instances give each its own scope.
type SessionStore interface {
	// Load returns the persisted session id for a scope, or "" when none exists.
	Load(scope string) (string, error)

	// Save persists the session id for a scope, replacing any previous value.
	Save(scope, sessionID string) error

	// Clear removes the persisted session id for a scope.
	Clear(scope string) error
}

// SQLiteSessionStore implements SessionStore backed by SQLite.
type SQLiteSessionStore struct {
	db *DB
}

// NewSQLiteSessionStore creates a session store using the given database.
func NewSQLiteSessionStore(db *DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

func (s *SQLiteSessionStore) Load(scope string) (string, error) {
	var id string
	err := s.db.sql.QueryRow(
		`SELECT session_id FROM widget_sessions WHERE scope = ?`, scope,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading session for scope %q: %w", scope, err)
	}
	return id, nil
}

func (s *SQLiteSessionStore) Save(scope, sessionID string) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO widget_sessions (scope, session_id, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(scope) DO UPDATE SET session_id = excluded.session_id, updated_at = excluded.updated_at`,
		scope, sessionID, time.Now().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("saving session for scope %q: %w", scope, err)
	}
	return nil
}

func (s *SQLiteSessionStore) Clear(scope string) error {
	if _, err := s.db.sql.Exec(`DELETE FROM widget_sessions WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clearing session for scope %q: %w", scope, err)
	}
	return nil
}

// MemorySessionStore is an in-memory SessionStore implementation.
// Used in tests and when the host opts out of persistence.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]string // scope → session id
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]string)}
}

func (s *MemorySessionStore) Load(scope string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[scope], nil
}

func (s *MemorySessionStore) Save(scope, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[scope] = sessionID
	return nil
}

func (s *MemorySessionStore) Clear(scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, scope)
	return nil
}
