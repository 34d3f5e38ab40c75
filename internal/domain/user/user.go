package user

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

var (
	ErrIDRequired       = errors.New("user: id is required")
	ErrEmailRequired    = errors.New("user: email is required")
	ErrNameRequired     = errors.New("user: name is required")
	ErrInvalidRole      = errors.New("user: invalid role")
	ErrEmailAlreadyUsed = errors.New("user: email already used")
	ErrNotFound         = errors.New("user: not found")
	ErrConcurrentUpdate = errors.New("user: concurrent update")
)

type ID string

type Role string

const (
	RoleGuest Role = "GUEST"
	RoleUser  Role = "USER"
	RoleOwner Role = "OWNER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes a role name; unknown names are rejected.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleGuest:
		return RoleGuest, nil
	case RoleUser:
		return RoleUser, nil
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

type User struct {
	ID         ID
	Name       string
	Email      string
	Role       Role
	SecretHash string
	AvatarURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID         ID
	Name       string
	Email      string
	Role       Role
	SecretHash string
	AvatarURL  string
	CreatedAt  time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role := params.Role
	if role == "" {
		role = RoleUser
	}
	role, err := ParseRole(string(role))
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:         ID(id),
		Name:       name,
		Email:      email,
		Role:       role,
		SecretHash: params.SecretHash,
		AvatarURL:  strings.TrimSpace(params.AvatarURL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// HasSecret reports whether a credential is stored for the user.
func (u *User) HasSecret() bool {
	return u != nil && strings.TrimSpace(u.SecretHash) != ""
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// NormalizeEmail lowercases and trims an address for comparisons and keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultAvatarURL builds the generated initials avatar used for self-registered users.
func DefaultAvatarURL(name string) string {
	q := url.Values{}
	q.Set("name", strings.TrimSpace(name))
	q.Set("background", "d4af37")
	q.Set("color", "fff")
	return "https://ui-avatars.com/api/?" + q.Encode()
}
