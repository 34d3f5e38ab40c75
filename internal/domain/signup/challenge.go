package signup

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"reva/internal/domain/user"
)

var (
	ErrEmailRequired     = errors.New("signup: email is required")
	ErrCodeFormat        = errors.New("signup: code must be six digits")
	ErrChallengeNotFound = errors.New("signup: no pending challenge")
	ErrCodeMismatch      = errors.New("signup: code mismatch")
	ErrChallengeExpired  = errors.New("signup: challenge expired")
	ErrTooManyAttempts   = errors.New("signup: too many attempts")
)

const (
	CodeMin = 100000
	CodeMax = 999999

	DefaultTTL         = 15 * time.Minute
	DefaultMaxAttempts = 5
)

// Challenge is the single outstanding one-time code for an email address.
type Challenge struct {
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type NewChallengeParams struct {
	Email       string
	Code        string
	TTL         time.Duration
	MaxAttempts int
	Now         time.Time
}

func NewChallenge(params NewChallengeParams) (*Challenge, error) {
	email := user.NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !ValidCode(params.Code) {
		return nil, ErrCodeFormat
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Challenge{
		Email:       email,
		Code:        params.Code,
		MaxAttempts: attempts,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

func (c *Challenge) Expired(at time.Time) bool {
	return !c.ExpiresAt.After(at.UTC())
}

// Verify checks a submitted code. It does not mutate the attempt counter; stores do that.
func (c *Challenge) Verify(code string, at time.Time) error {
	if c.Expired(at) {
		return ErrChallengeExpired
	}
	if c.MaxAttempts > 0 && c.Attempts >= c.MaxAttempts {
		return ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(c.Code)) != 1 {
		return ErrCodeMismatch
	}
	return nil
}

// ValidCode reports whether s is a six digit code in the issued range.
func ValidCode(s string) bool {
	if len(s) != 6 || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ChallengeStore keeps at most one challenge per normalized email.
type ChallengeStore interface {
	// Put replaces any existing challenge for the same email.
	Put(ctx context.Context, challenge *Challenge) error
	Get(ctx context.Context, email string) (*Challenge, error)
	// RecordFailure increments the attempt counter and returns the new value.
	RecordFailure(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}
