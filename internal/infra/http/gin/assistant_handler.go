package ginserver

import (
	"context"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"reva/internal/app/dto"
	"reva/internal/app/policies"
	"reva/internal/app/services/concierge"
)

type Concierge interface {
	Reply(ctx context.Context, message string, history []policies.Turn) concierge.Reply
}

// AssistantHandler relays chat messages. It answers 200 even when the model is unavailable;
// the reply text carries the apology.
type AssistantHandler struct {
	Service Concierge
}

func (h AssistantHandler) Message(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant unavailable"})
		return
	}
	var req dto.AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	history := make([]policies.Turn, 0, len(req.History))
	for _, t := range req.History {
		history = append(history, policies.Turn{Role: policies.TurnRole(t.Role), Text: t.Text})
	}
	reply := h.Service.Reply(c.Request.Context(), req.Message, history)
	resp := dto.AssistantReply{Reply: reply.Text}
	if len(reply.Listings) > 0 {
		resp.Listings = dto.MapListingCollection(reply.Listings).Items
	}
	c.JSON(http.StatusOK, resp)
}

var _ AssistantHTTP = AssistantHandler{}
