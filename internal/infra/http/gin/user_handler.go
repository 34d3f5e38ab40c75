package ginserver

import (
	"context"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"reva/internal/app/dto"
	domainuser "reva/internal/domain/user"
)

type UserLookup interface {
	GetUser(ctx context.Context, id string) (*domainuser.User, error)
}

// UserHandler serves public profiles. Email and secret never leave through here.
type UserHandler struct {
	Service UserLookup
	Logger  *slog.Logger
}

func (h UserHandler) Get(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "user service unavailable"})
		return
	}
	user, err := h.Service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPublicUser(user))
}

var _ UserHTTP = UserHandler{}
