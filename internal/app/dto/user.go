package dto

import (
	"time"

	domainuser "reva/internal/domain/user"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicUser is what other callers may see about a user.
type PublicUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

type SignupChallengeResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Delivered bool      `json:"delivered"`
	// Code is disclosed only when delivery failed, so the caller can still finish signup.
	Code          string `json:"code,omitempty"`
	DeliveryError string `json:"delivery_error,omitempty"`
}

func MapUserProfile(user *domainuser.User) UserProfile {
	if user == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:        string(user.ID),
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
}

func MapPublicUser(user *domainuser.User) PublicUser {
	if user == nil {
		return PublicUser{}
	}
	return PublicUser{
		ID:        string(user.ID),
		Name:      user.Name,
		Role:      string(user.Role),
		AvatarURL: user.AvatarURL,
	}
}

func NewAuthResponse(user *domainuser.User, token string) AuthResponse {
	return AuthResponse{User: MapUserProfile(user), Token: token}
}
