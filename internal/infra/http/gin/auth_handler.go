package ginserver

import (
	"context"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"reva/internal/app/dto"
	"reva/internal/app/services/identity"
)

// IdentityService is the part of the identity service the auth endpoints drive.
type IdentityService interface {
	Login(ctx context.Context, params identity.LoginParams) (*identity.AuthResult, error)
	Logout(ctx context.Context, token string) error
	BeginSignup(ctx context.Context, email string) (*identity.SignupChallengeResult, error)
	CompleteSignup(ctx context.Context, params identity.CompleteSignupParams) (*identity.AuthResult, error)
}

type AuthHandler struct {
	Service IdentityService
	Logger  *slog.Logger
}

type loginRequest struct {
	Email  string `json:"email" binding:"required"`
	Secret string `json:"secret"`
}

type beginSignupRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type completeSignupRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email" binding:"required,email"`
	Secret string `json:"secret"`
	Code   string `json:"code" binding:"required"`
}

func (h AuthHandler) Login(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	result, err := h.Service.Login(c.Request.Context(), identity.LoginParams{
		Email:  req.Email,
		Secret: req.Secret,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAuthResponse(result.User, result.Token))
}

func (h AuthHandler) Logout(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	token := bearerTokenFromContext(c)
	if err := h.Service.Logout(c.Request.Context(), token); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("logout failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.MapUserProfile(p.User))
}

// BeginSignup issues a code. When delivery fails the code is disclosed in the response so
// the client can still complete signup.
func (h AuthHandler) BeginSignup(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req beginSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}
	result, err := h.Service.BeginSignup(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	resp := dto.SignupChallengeResponse{
		Email:     result.Email,
		ExpiresAt: result.ExpiresAt,
		Delivered: result.Delivered,
	}
	if !result.Delivered {
		resp.Code = result.Code
		resp.DeliveryError = result.DeliveryError
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h AuthHandler) CompleteSignup(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req completeSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and code are required"})
		return
	}
	result, err := h.Service.CompleteSignup(c.Request.Context(), identity.CompleteSignupParams{
		Name:   req.Name,
		Email:  req.Email,
		Secret: req.Secret,
		Code:   req.Code,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAuthResponse(result.User, result.Token))
}

func bearerTokenFromContext(c *gin.Context) string {
	if p, ok := currentPrincipal(c); ok && p.Token != "" {
		return p.Token
	}
	return extractBearerToken(c.GetHeader("Authorization"))
}

var _ AuthHTTP = (*AuthHandler)(nil)
