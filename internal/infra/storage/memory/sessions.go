package memory

import (
	"context"
	"sync"
	"time"

	domainauth "reva/internal/domain/auth"
)

type SessionStore struct {
	mu    sync.RWMutex
	items map[domainauth.Token]domainauth.Session
	now   func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[domainauth.Token]domainauth.Session), now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, session *domainauth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.Token] = *session
	return nil
}

// Get drops and reports expired sessions as missing.
func (s *SessionStore) Get(_ context.Context, token domainauth.Token) (*domainauth.Session, error) {
	s.mu.RLock()
	sess, ok := s.items[token]
	s.mu.RUnlock()
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.items, token)
		s.mu.Unlock()
		return nil, domainauth.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Delete(_ context.Context, token domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
