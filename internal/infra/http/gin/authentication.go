package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"reva/internal/app/services/identity"
	"reva/internal/domain/access"
	domainauth "reva/internal/domain/auth"
	domainuser "reva/internal/domain/user"
	"reva/internal/infra/obs"
)

const principalContextKey = "reva.principal"

type principal struct {
	access.Principal
	User  *domainuser.User
	Token string
}

// TokenResolver turns a bearer token into the signed-in user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*identity.ResolveResult, error)
}

// AuthMiddleware attaches the caller when a valid bearer token is present. Requests without
// one continue anonymously; handlers decide whether that is enough.
type AuthMiddleware struct {
	Service TokenResolver
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	user := resolved.User
	obs.SetLogUser(c, string(user.ID))
	setPrincipal(c, principal{
		Principal: access.Principal{ID: user.ID, Role: user.Role},
		User:      user,
		Token:     token,
	})
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// requireAuth writes 401 and returns false when nobody is signed in.
func requireAuth(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
