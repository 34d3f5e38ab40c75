package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"reva/internal/app/dto"
	"reva/internal/app/handlers/dashboard"
	"reva/internal/app/queries"
)

type DashboardHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h DashboardHandler) Summary(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	result, err := queries.Ask[dashboard.SummaryQuery, *dto.Dashboard](c.Request.Context(), h.Queries, dashboard.SummaryQuery{Actor: p.Principal})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ DashboardHTTP = DashboardHandler{}
