package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// Quiz sessions live in Redis with an idle TTL, so a user can resume a
// half-solved queue after a restart and abandoned sessions expire on
// their own.
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore implements quiz.SessionStore on Redis.
type SessionStore struct {
	cache *Cache
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(cache *Cache) *SessionStore {
	return &SessionStore{cache: cache}
}

// Get returns the stored session or shared.ErrStaleSession.
func (s *SessionStore) Get(ctx context.Context, user shared.TelegramID) (*quiz.Session, error) {
	var sess quiz.Session
	err := s.cache.Get(ctx, SessionKey(user.Int64()), &sess)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrStaleSession
		}
		return nil, shared.WrapError("quiz", "SessionGet", shared.ErrServiceUnavailable, "session store read failed", err)
	}
	return &sess, nil
}

// Save stores the session and refreshes its idle TTL.
func (s *SessionStore) Save(ctx context.Context, sess *quiz.Session) error {
	if sess == nil {
		return fmt.Errorf("redis: nil session")
	}
	err := s.cache.Set(ctx, SessionKey(sess.User.Int64()), sess, TTLSession)
	if err != nil {
		return shared.WrapError("quiz", "SessionSave", shared.ErrServiceUnavailable, "session store write failed", err)
	}
	return nil
}

// Clear removes the session; a missing key is not an error.
func (s *SessionStore) Clear(ctx context.Context, user shared.TelegramID) error {
	err := s.cache.Delete(ctx, SessionKey(user.Int64()))
	if err != nil {
		return shared.WrapError("quiz", "SessionClear", shared.ErrServiceUnavailable, "session store delete failed", err)
	}
	return nil
}
