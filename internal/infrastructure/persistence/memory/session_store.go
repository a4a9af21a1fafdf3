// Package memory implements in-process storage used when no external fast
// store is configured. Sessions are lost on restart, which is acceptable:
// the user simply starts the selection over.
package memory

import (
	"context"
	"sync"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// SessionStore implements quiz.SessionStore in process memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[shared.TelegramID]*quiz.Session
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[shared.TelegramID]*quiz.Session)}
}

// Get returns the stored session or shared.ErrStaleSession.
func (s *SessionStore) Get(_ context.Context, user shared.TelegramID) (*quiz.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[user]
	if !ok {
		return nil, shared.ErrStaleSession
	}
	return sess, nil
}

// Save stores the session.
func (s *SessionStore) Save(_ context.Context, sess *quiz.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.User] = sess
	return nil
}

// Clear removes the session; a missing one is not an error.
func (s *SessionStore) Clear(_ context.Context, user shared.TelegramID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, user)
	return nil
}
