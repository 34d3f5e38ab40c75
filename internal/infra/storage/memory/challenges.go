package memory

import (
	"context"
	"sync"
	"time"

	"reva/internal/domain/signup"
	domainuser "reva/internal/domain/user"
)

// ChallengeStore keeps one pending signup challenge per email.
type ChallengeStore struct {
	mu    sync.Mutex
	items map[string]signup.Challenge
	now   func() time.Time
}

func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{items: make(map[string]signup.Challenge), now: time.Now}
}

func (s *ChallengeStore) Put(_ context.Context, c *signup.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge()
	s.items[domainuser.NormalizeEmail(c.Email)] = *c
	return nil
}

func (s *ChallengeStore) Get(_ context.Context, email string) (*signup.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[domainuser.NormalizeEmail(email)]
	if !ok {
		return nil, signup.ErrChallengeNotFound
	}
	return &c, nil
}

func (s *ChallengeStore) RecordFailure(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domainuser.NormalizeEmail(email)
	c, ok := s.items[key]
	if !ok {
		return 0, signup.ErrChallengeNotFound
	}
	c.Attempts++
	s.items[key] = c
	return c.Attempts, nil
}

func (s *ChallengeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, domainuser.NormalizeEmail(email))
	return nil
}

// purge drops challenges that expired more than a TTL ago. Callers hold mu.
func (s *ChallengeStore) purge() {
	now := s.now()
	for key, c := range s.items {
		if now.Sub(c.ExpiresAt) > signup.DefaultTTL {
			delete(s.items, key)
		}
	}
}

var _ signup.ChallengeStore = (*ChallengeStore)(nil)
