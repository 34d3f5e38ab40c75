package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"reva/internal/app/policies"
	domainauth "reva/internal/domain/auth"
	"reva/internal/domain/signup"
	domainuser "reva/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrUserAlreadyExists  = errors.New("identity: user already exists")
	ErrInvalidOtp         = errors.New("identity: invalid or expired code")
	ErrInvalidInput       = errors.New("identity: invalid input")
)

type PasswordHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

type CodeGenerator interface {
	NewCode() (string, error)
}

// SignupObserver receives signup lifecycle notifications, typically for metrics.
type SignupObserver interface {
	SignupStarted(delivered bool)
	SignupCompleted()
}

type Service struct {
	Users      domainuser.Repository
	Sessions   domainauth.SessionStore
	Challenges signup.ChallengeStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	Codes      CodeGenerator
	Sender     policies.CodeSender
	Observer   SignupObserver

	SessionTTL        time.Duration
	SignupCodeTTL     time.Duration
	SignupMaxAttempts int
	Clock             func() time.Time
	Logger            *slog.Logger
}

type LoginParams struct {
	Email  string
	Secret string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

type ResolveResult struct {
	User    *domainuser.User
	Session *domainauth.Session
}

// SignupChallengeResult reports the issued code and whether it reached the user.
// The code is always returned so callers can fall back to disclosing it.
type SignupChallengeResult struct {
	Email         string
	Code          string
	ExpiresAt     time.Time
	Delivered     bool
	DeliveryError string
}

type CompleteSignupParams struct {
	Name   string
	Email  string
	Secret string
	Code   string
}

// Authenticate checks a secret. Users without a stored secret accept any input.
func (s *Service) Authenticate(ctx context.Context, email, secret string) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email = domainuser.NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.HasSecret() {
		if err := s.Passwords.Compare(user.SecretHash, secret); err != nil {
			return nil, ErrInvalidCredentials
		}
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user, err := s.Authenticate(ctx, params.Email, params.Secret)
	if err != nil {
		return nil, err
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", user.ID, "role", user.Role)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, domainauth.Token(token)); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("session terminated")
	}
	return nil
}

func (s *Service) ResolveToken(ctx context.Context, token string) (*ResolveResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, domainauth.ErrSessionNotFound
	}
	user, err := s.Users.ByID(ctx, session.UserID)
	if err != nil {
		_ = s.Sessions.Delete(ctx, session.Token)
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	return &ResolveResult{User: user, Session: session}, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	if s.Users == nil {
		return nil, errors.New("identity: user repository required")
	}
	return s.Users.ByEmail(ctx, domainuser.NormalizeEmail(email))
}

func (s *Service) GetUser(ctx context.Context, id string) (*domainuser.User, error) {
	if s.Users == nil {
		return nil, errors.New("identity: user repository required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domainuser.ErrNotFound
	}
	return s.Users.ByID(ctx, domainuser.ID(id))
}

// BeginSignup issues a fresh code for email, replacing any earlier one. A failed delivery
// is reported in the result, never as an error.
func (s *Service) BeginSignup(ctx context.Context, email string) (*SignupChallengeResult, error) {
	if err := s.ensureSignupDependencies(); err != nil {
		return nil, err
	}
	email = domainuser.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return nil, err
	}

	code, err := s.Codes.NewCode()
	if err != nil {
		return nil, err
	}
	challenge, err := signup.NewChallenge(signup.NewChallengeParams{
		Email:       email,
		Code:        code,
		TTL:         s.codeTTL(),
		MaxAttempts: s.SignupMaxAttempts,
		Now:         s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Challenges.Put(ctx, challenge); err != nil {
		return nil, err
	}

	result := &SignupChallengeResult{Email: email, Code: code, ExpiresAt: challenge.ExpiresAt}
	if s.Sender == nil {
		result.DeliveryError = "delivery not configured"
	} else if err := s.Sender.SendCode(ctx, email, code, s.codeTTL()); err != nil {
		result.DeliveryError = err.Error()
		if s.Logger != nil {
			s.Logger.Warn("signup code delivery failed", "email", email, "error", err)
		}
	} else {
		result.Delivered = true
	}
	if s.Observer != nil {
		s.Observer.SignupStarted(result.Delivered)
	}
	if s.Logger != nil {
		s.Logger.Info("signup challenge issued", "email", email, "delivered", result.Delivered, "expires_at", challenge.ExpiresAt)
	}
	return result, nil
}

// CompleteSignup verifies the code and creates a USER account with an open session.
func (s *Service) CompleteSignup(ctx context.Context, params CompleteSignupParams) (*AuthResult, error) {
	if err := s.ensureSignupDependencies(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	name := strings.TrimSpace(params.Name)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	challenge, err := s.Challenges.Get(ctx, email)
	if err != nil {
		if errors.Is(err, signup.ErrChallengeNotFound) {
			return nil, ErrInvalidOtp
		}
		return nil, err
	}
	if err := challenge.Verify(params.Code, s.now()); err != nil {
		switch {
		case errors.Is(err, signup.ErrCodeMismatch):
			if _, recErr := s.Challenges.RecordFailure(ctx, email); recErr != nil && s.Logger != nil {
				s.Logger.Warn("signup attempt not recorded", "email", email, "error", recErr)
			}
		case errors.Is(err, signup.ErrChallengeExpired), errors.Is(err, signup.ErrTooManyAttempts):
			_ = s.Challenges.Delete(ctx, email)
		}
		return nil, ErrInvalidOtp
	}
	// the challenge stays open so the caller can resubmit with the missing fields
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case params.Secret == "":
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidInput)
	}

	hash, err := s.Passwords.Hash(params.Secret)
	if err != nil {
		return nil, err
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:         domainuser.ID(uuid.NewString()),
		Name:       name,
		Email:      email,
		Role:       domainuser.RoleUser,
		SecretHash: hash,
		AvatarURL:  domainuser.DefaultAvatarURL(name),
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.Users.Save(ctx, user); err != nil {
		if errors.Is(err, domainuser.ErrEmailAlreadyUsed) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	if err := s.Challenges.Delete(ctx, email); err != nil && s.Logger != nil {
		s.Logger.Warn("signup challenge not cleared", "email", email, "error", err)
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.Observer != nil {
		s.Observer.SignupCompleted()
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) issueSession(ctx context.Context, user *domainuser.User) (string, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return "", err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: user.ID,
		Role:   user.Role,
		TTL:    s.sessionTTL(),
		Now:    s.now(),
	})
	if err != nil {
		return "", err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func (s *Service) codeTTL() time.Duration {
	if s.SignupCodeTTL > 0 {
		return s.SignupCodeTTL
	}
	return signup.DefaultTTL
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("identity: user repository required")
	case s.Sessions == nil:
		return errors.New("identity: session store required")
	case s.Passwords == nil:
		return errors.New("identity: password hasher required")
	case s.Tokens == nil:
		return errors.New("identity: token generator required")
	default:
		return nil
	}
}

func (s *Service) ensureSignupDependencies() error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	switch {
	case s.Challenges == nil:
		return errors.New("identity: challenge store required")
	case s.Codes == nil:
		return errors.New("identity: code generator required")
	default:
		return nil
	}
}
