package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"reva/internal/domain/signup"
	domainuser "reva/internal/domain/user"
)

const (
	challengePrefix = "reva:signup:"
	fieldChallenge  = "challenge"
	fieldAttempts   = "attempts"
)

// incrementAttempts bumps the counter only while the challenge still exists.
var incrementAttempts = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
`)

// ChallengeStore keeps each challenge in a hash that expires with the code.
type ChallengeStore struct {
	rdb goredis.UniversalClient
}

func NewChallengeStore(rdb goredis.UniversalClient) *ChallengeStore {
	return &ChallengeStore{rdb: rdb}
}

func (s *ChallengeStore) Put(ctx context.Context, c *signup.Challenge) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	key := challengeKey(c.Email)
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, fieldChallenge, payload, fieldAttempts, c.Attempts)
		p.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *ChallengeStore) Get(ctx context.Context, email string) (*signup.Challenge, error) {
	fields, err := s.rdb.HGetAll(ctx, challengeKey(email)).Result()
	if err != nil {
		return nil, err
	}
	raw, ok := fields[fieldChallenge]
	if !ok {
		return nil, signup.ErrChallengeNotFound
	}
	var c signup.Challenge
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	if n, err := strconv.Atoi(fields[fieldAttempts]); err == nil {
		c.Attempts = n
	}
	return &c, nil
}

func (s *ChallengeStore) RecordFailure(ctx context.Context, email string) (int, error) {
	n, err := incrementAttempts.Run(ctx, s.rdb, []string{challengeKey(email)}, fieldAttempts).Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, signup.ErrChallengeNotFound
	}
	return n, nil
}

func (s *ChallengeStore) Delete(ctx context.Context, email string) error {
	err := s.rdb.Del(ctx, challengeKey(email)).Err()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	return err
}

func challengeKey(email string) string {
	return challengePrefix + domainuser.NormalizeEmail(email)
}

var _ signup.ChallengeStore = (*ChallengeStore)(nil)
