package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domainauth "reva/internal/domain/auth"
)

const sessionPrefix = "reva:session:"

// SessionStore keeps sessions as JSON values that expire with the session.
type SessionStore struct {
	rdb goredis.UniversalClient
}

func NewSessionStore(rdb goredis.UniversalClient) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	ttl := session.TTL(time.Now())
	if ttl <= 0 {
		return domainauth.ErrTTLInvalid
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(session.Token), payload, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domainauth.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

func sessionKey(token domainauth.Token) string {
	return sessionPrefix + string(token)
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
