package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"reva/internal/app/commands"
	"reva/internal/app/dto"
	bookingapp "reva/internal/app/handlers/booking"
	"reva/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID string `json:"listing_id"`
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h BookingHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		Actor:           p.Principal,
		ListingID:       req.ListingID,
		UserID:          req.UserID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingSummary](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) List(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListBookingsQuery{Actor: p.Principal, Scope: c.Query("scope")}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) SetStatus(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := bookingapp.SetBookingStatusCommand{Actor: p.Principal, BookingID: c.Param("id"), Status: req.Status}
	result, err := commands.Dispatch[bookingapp.SetBookingStatusCommand, *dto.BookingSummary](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) History(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.BookingHistoryQuery{Actor: p.Principal, BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.BookingHistoryQuery, *dto.BookingHistory](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
