package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"reva/internal/app/commands"
	"reva/internal/app/middleware"
	"reva/internal/app/queries"
	"reva/internal/app/services/identity"
	"reva/internal/domain/access"
	domainauth "reva/internal/domain/auth"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	"reva/internal/domain/shared/daterange"
	domainuser "reva/internal/domain/user"
	"reva/internal/infra/obs"
)

// statusFor maps application errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrValidation),
		errors.Is(err, identity.ErrInvalidInput),
		errors.Is(err, domainbooking.ErrUnorderedDates),
		errors.Is(err, domainbooking.ErrInvalidStatus),
		errors.Is(err, domainbooking.ErrUserRequired),
		errors.Is(err, domainbooking.ErrListingRequired),
		errors.Is(err, daterange.ErrMissingBound),
		errors.Is(err, daterange.ErrUnordered):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, domainauth.ErrTokenRequired),
		errors.Is(err, domainauth.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrUserAlreadyExists),
		errors.Is(err, domainuser.ErrEmailAlreadyUsed),
		errors.Is(err, domainbooking.ErrDatesOverlap),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainbooking.ErrConcurrentUpdate),
		errors.Is(err, domainlistings.ErrConcurrentUpdate),
		errors.Is(err, domainuser.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, identity.ErrInvalidOtp):
		return http.StatusUnprocessableEntity
	case errors.Is(err, commands.ErrHandlerNotFound),
		errors.Is(err, queries.ErrHandlerNotFound):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err, "request_id", obs.RequestIDFromContext(c.Request.Context()))
		}
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
